package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/ical"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/config"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
)

type BookingService interface {
	Quote(ctx context.Context, cabinID int64, start, end time.Time, authenticated bool) (*domain.Quote, error)
	Create(ctx context.Context, req *domain.CreateBookingRequest, guestID *int64) (*domain.BookingRequest, error)
	GetForParticipant(ctx context.Context, id, userID int64) (*domain.BookingRequest, error)
	ListByHost(ctx context.Context, hostID int64, limit, offset int, status *domain.BookingStatus) ([]domain.BookingRequest, error)
	ListByGuest(ctx context.Context, guestID int64, limit, offset int) ([]domain.BookingRequest, error)
	Transition(ctx context.Context, requestID, actingHostID int64, newStatus domain.BookingStatus, comment string) (*domain.BookingRequest, error)
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	BlockedDates(ctx context.Context, cabinID int64) ([]time.Time, error)
}

type bookingService struct {
	bookingRepo  postgres.BookingRepository
	cabinRepo    postgres.CabinRepository
	calendarRepo postgres.CalendarRepository
	userRepo     postgres.UserRepository
	eventBus     events.Publisher
	cfg          *config.Config
}

func NewBookingService(
	bookingRepo postgres.BookingRepository,
	cabinRepo postgres.CabinRepository,
	calendarRepo postgres.CalendarRepository,
	userRepo postgres.UserRepository,
	eventBus events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		cabinRepo:    cabinRepo,
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
		eventBus:     eventBus,
		cfg:          cfg,
	}
}

const dateLayout = "2006-01-02"

func (s *bookingService) Quote(ctx context.Context, cabinID int64, start, end time.Time, authenticated bool) (*domain.Quote, error) {
	cabin, err := s.cabinRepo.GetByID(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabinID)
	}

	nights, err := validateRange(cabin, start, end)
	if err != nil {
		return nil, err
	}

	quote := domain.QuotePrice(cabin, nights, !authenticated, s.cfg.Platform.AnonymousMarkup)
	return &quote, nil
}

func (s *bookingService) Create(ctx context.Context, req *domain.CreateBookingRequest, guestID *int64) (*domain.BookingRequest, error) {
	cabin, err := s.cabinRepo.GetByID(ctx, req.CabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil || cabin.Status != domain.CabinActive {
		return nil, fmt.Errorf("%w: cabin not available", domain.ErrNotFound)
	}

	if req.GuestEmail == "" || req.GuestName == "" {
		return nil, fmt.Errorf("%w: guest name and email are required", domain.ErrValidation)
	}
	if req.GuestsCount < 1 {
		return nil, fmt.Errorf("%w: at least one guest required", domain.ErrValidation)
	}
	if req.GuestsCount > cabin.MaxGuests {
		return nil, fmt.Errorf("%w: cabin takes at most %d guests", domain.ErrValidation, cabin.MaxGuests)
	}

	req.StartDate = ical.Midnight(req.StartDate)
	req.EndDate = ical.Midnight(req.EndDate)
	if _, err := validateRange(cabin, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.checkAvailability(ctx, cabin.ID, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.Create(ctx, req, guestID, cabin.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	hostEmail := ""
	if host, err := s.userRepo.FindByID(ctx, cabin.OwnerID); err == nil && host != nil {
		hostEmail = host.Email
	}

	event := events.BookingRequestedEvent{
		RequestID:   booking.ID,
		CabinID:     cabin.ID,
		CabinTitle:  cabin.Title,
		HostEmail:   hostEmail,
		GuestName:   booking.GuestName,
		GuestEmail:  booking.GuestEmail,
		Anonymous:   booking.IsAnonymous(),
		StartDate:   booking.StartDate.Format(dateLayout),
		EndDate:     booking.EndDate.Format(dateLayout),
		GuestsCount: booking.GuestsCount,
		Message:     booking.Message,
		CreatedAt:   booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingRequested, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking requested event", "error", err, "request_id", booking.ID)
	}

	return booking, nil
}

func validateRange(cabin *domain.Cabin, start, end time.Time) (int, error) {
	if !start.Before(end) {
		return 0, fmt.Errorf("%w: start date must be before end date", domain.ErrValidation)
	}
	nights := int(end.Sub(start).Hours() / 24)
	if cabin.MinNights > 0 && nights < cabin.MinNights {
		return 0, fmt.Errorf("%w: minimum stay is %d nights", domain.ErrValidation, cabin.MinNights)
	}
	return nights, nil
}

// checkAvailability tests the range against the blocked-date set: approved
// requests plus cached external-calendar dates. This is a submission-time
// snapshot; the conditional approve is the real serialization point.
func (s *bookingService) checkAvailability(ctx context.Context, cabinID int64, start, end time.Time) error {
	taken, err := s.bookingRepo.OverlapsApproved(ctx, cabinID, start, end)
	if err != nil {
		return fmt.Errorf("failed to check approved bookings: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: dates are already booked", domain.ErrValidation)
	}

	blocked, err := s.calendarRepo.HasBlockedInRange(ctx, cabinID, start, end)
	if err != nil {
		return fmt.Errorf("failed to check calendar cache: %w", err)
	}
	if blocked {
		return fmt.Errorf("%w: dates are blocked by the host calendar", domain.ErrValidation)
	}

	return nil
}

func (s *bookingService) GetForParticipant(ctx context.Context, id, userID int64) (*domain.BookingRequest, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking request %d", domain.ErrNotFound, id)
	}
	if booking.HostID != userID && (booking.GuestID == nil || *booking.GuestID != userID) {
		return nil, fmt.Errorf("%w: not a participant of this request", domain.ErrAuthorization)
	}
	return booking, nil
}

func (s *bookingService) ListByHost(ctx context.Context, hostID int64, limit, offset int, status *domain.BookingStatus) ([]domain.BookingRequest, error) {
	return s.bookingRepo.ListByHost(ctx, hostID, limit, offset, status)
}

func (s *bookingService) ListByGuest(ctx context.Context, guestID int64, limit, offset int) ([]domain.BookingRequest, error) {
	return s.bookingRepo.ListByGuest(ctx, guestID, limit, offset)
}

// Transition moves a pending request to approved or rejected. Approval is a
// conditional write that loses to an existing overlapping approval; there is
// no revert out of a terminal state.
func (s *bookingService) Transition(ctx context.Context, requestID, actingHostID int64, newStatus domain.BookingStatus, comment string) (*domain.BookingRequest, error) {
	if newStatus != domain.BookingApproved && newStatus != domain.BookingRejected {
		return nil, fmt.Errorf("%w: target status must be approved or rejected", domain.ErrValidation)
	}

	existing, err := s.bookingRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: booking request %d", domain.ErrNotFound, requestID)
	}
	if existing.HostID != actingHostID {
		return nil, fmt.Errorf("%w: only the cabin owner can decide this request", domain.ErrAuthorization)
	}
	if existing.Status != domain.BookingPending {
		return nil, fmt.Errorf("%w: request is already %s", domain.ErrInvalidState, existing.Status)
	}

	var updated *domain.BookingRequest
	if newStatus == domain.BookingApproved {
		var conflicted bool
		updated, conflicted, err = s.bookingRepo.ApproveIfAvailable(ctx, requestID, comment)
		if err != nil {
			return nil, fmt.Errorf("failed to approve request: %w", err)
		}
		if updated == nil {
			if conflicted {
				return nil, fmt.Errorf("%w: dates were approved for another request", domain.ErrInvalidState)
			}
			return nil, fmt.Errorf("%w: request is no longer pending", domain.ErrInvalidState)
		}
	} else {
		updated, err = s.bookingRepo.Reject(ctx, requestID, comment)
		if err != nil {
			return nil, fmt.Errorf("failed to reject request: %w", err)
		}
		if updated == nil {
			return nil, fmt.Errorf("%w: request is no longer pending", domain.ErrInvalidState)
		}
	}

	subject := events.BookingRejected
	if newStatus == domain.BookingApproved {
		subject = events.BookingApproved
	}

	cabinTitle := ""
	if cabin, err := s.cabinRepo.GetByID(ctx, updated.CabinID); err == nil && cabin != nil {
		cabinTitle = cabin.Title
	}

	event := events.BookingDecidedEvent{
		RequestID:   updated.ID,
		CabinTitle:  cabinTitle,
		GuestName:   updated.GuestName,
		GuestEmail:  updated.GuestEmail,
		StartDate:   updated.StartDate.Format(dateLayout),
		EndDate:     updated.EndDate.Format(dateLayout),
		HostComment: comment,
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking decision event", "error", err, "request_id", updated.ID)
	}

	return updated, nil
}

// ExpireStale rejects every pending request older than the configured
// window and notifies both sides. Safe to re-run; a drained table affects
// zero rows.
func (s *bookingService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.cfg.Platform.RequestExpiry)
	expired, err := s.bookingRepo.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale requests: %w", err)
	}

	for _, b := range expired {
		cabinTitle := ""
		hostEmail := ""
		if cabin, err := s.cabinRepo.GetByID(ctx, b.CabinID); err == nil && cabin != nil {
			cabinTitle = cabin.Title
			if host, err := s.userRepo.FindByID(ctx, cabin.OwnerID); err == nil && host != nil {
				hostEmail = host.Email
			}
		}

		event := events.BookingExpiredEvent{
			RequestID:  b.ID,
			CabinTitle: cabinTitle,
			GuestName:  b.GuestName,
			GuestEmail: b.GuestEmail,
			HostEmail:  hostEmail,
			StartDate:  b.StartDate.Format(dateLayout),
			EndDate:    b.EndDate.Format(dateLayout),
		}
		if err := s.eventBus.Publish(ctx, events.BookingExpired, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking expired event", "error", err, "request_id", b.ID)
		}
	}

	return len(expired), nil
}

// BlockedDates returns the cabin's unavailable dates for guest-facing
// calendars: cached external-calendar dates plus approved booking stays.
func (s *bookingService) BlockedDates(ctx context.Context, cabinID int64) ([]time.Time, error) {
	dates, err := s.calendarRepo.ListDates(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar dates: %w", err)
	}

	today := ical.Midnight(time.Now())
	approved, err := s.bookingRepo.ListApprovedFrom(ctx, cabinID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved stays: %w", err)
	}

	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		seen[d] = true
	}
	for _, b := range approved {
		for d := ical.Midnight(b.StartDate); d.Before(b.EndDate); d = d.AddDate(0, 0, 1) {
			if d.Before(today) || seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
