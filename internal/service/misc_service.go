package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
)

// MiscService covers the small public surfaces: the contact form and the
// newsletter signup.
type MiscService interface {
	Contact(ctx context.Context, name, email, subject, body string) error
	SubscribeNewsletter(ctx context.Context, email string) (bool, error)
}

type miscService struct {
	newsletterRepo postgres.NewsletterRepository
	eventBus       events.Publisher
}

func NewMiscService(newsletterRepo postgres.NewsletterRepository, eventBus events.Publisher) MiscService {
	return &miscService{newsletterRepo: newsletterRepo, eventBus: eventBus}
}

func (s *miscService) Contact(ctx context.Context, name, email, subject, body string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: name and message are required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if subject == "" {
		subject = "Wiadomość z formularza kontaktowego"
	}

	event := events.ContactReceivedEvent{
		Name:    name,
		Email:   email,
		Subject: subject,
		Body:    body,
	}
	if err := s.eventBus.Publish(ctx, events.ContactReceived, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish contact event", "error", err)
		return fmt.Errorf("failed to forward contact message: %w", err)
	}
	return nil
}

// SubscribeNewsletter reports whether the address was newly added; a repeat
// signup is not an error.
func (s *miscService) SubscribeNewsletter(ctx context.Context, email string) (bool, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}

	added, err := s.newsletterRepo.Subscribe(ctx, strings.ToLower(addr.Address))
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}
	return added, nil
}
