package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/repo/postgres"
)

const maxChatMessageLen = 2000

type ChatService interface {
	Send(ctx context.Context, requestID, senderID int64, message string) (*domain.ChatMessage, error)
	List(ctx context.Context, requestID, userID int64, limit, offset int) ([]domain.ChatMessage, error)
}

type chatService struct {
	chatRepo    postgres.ChatRepository
	bookingRepo postgres.BookingRepository
}

func NewChatService(chatRepo postgres.ChatRepository, bookingRepo postgres.BookingRepository) ChatService {
	return &chatService{chatRepo: chatRepo, bookingRepo: bookingRepo}
}

// Send appends a message to the thread of an approved booking request.
// Only the host and the registered guest participate; anonymous requests
// have no thread.
func (s *chatService) Send(ctx context.Context, requestID, senderID int64, message string) (*domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", domain.ErrValidation)
	}
	if len(message) > maxChatMessageLen {
		return nil, fmt.Errorf("%w: message too long", domain.ErrValidation)
	}

	booking, err := s.participantBooking(ctx, requestID, senderID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingApproved {
		return nil, fmt.Errorf("%w: chat opens after the request is approved", domain.ErrInvalidState)
	}

	msg, err := s.chatRepo.Create(ctx, requestID, senderID, message)
	if err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}
	return msg, nil
}

func (s *chatService) List(ctx context.Context, requestID, userID int64, limit, offset int) ([]domain.ChatMessage, error) {
	if _, err := s.participantBooking(ctx, requestID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListByRequest(ctx, requestID, limit, offset)
}

func (s *chatService) participantBooking(ctx context.Context, requestID, userID int64) (*domain.BookingRequest, error) {
	booking, err := s.bookingRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking request: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking request %d", domain.ErrNotFound, requestID)
	}
	if booking.HostID != userID && (booking.GuestID == nil || *booking.GuestID != userID) {
		return nil, fmt.Errorf("%w: not a participant of this request", domain.ErrAuthorization)
	}
	return booking, nil
}
