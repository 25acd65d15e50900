package service

import (
	"context"
	"fmt"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/ical"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/pkg/logger"
)

type CalendarService interface {
	TestFeed(ctx context.Context, url string) *domain.FeedTestResult
	SyncOne(ctx context.Context, cabinID int64) ([]time.Time, error)
	SyncAll(ctx context.Context) ([]domain.SyncReport, error)
}

type calendarService struct {
	cabinRepo    postgres.CabinRepository
	calendarRepo postgres.CalendarRepository
	parser       *ical.Parser
	now          func() time.Time
}

func NewCalendarService(
	cabinRepo postgres.CabinRepository,
	calendarRepo postgres.CalendarRepository,
	fetchTimeout time.Duration,
) CalendarService {
	return &calendarService{
		cabinRepo:    cabinRepo,
		calendarRepo: calendarRepo,
		parser:       ical.NewParser(fetchTimeout),
		now:          time.Now,
	}
}

// TestFeed dry-runs a feed URL for host-side validation. Nothing is
// persisted either way.
func (s *calendarService) TestFeed(ctx context.Context, url string) *domain.FeedTestResult {
	events, err := s.parser.FetchAndParse(url)
	if err != nil {
		return &domain.FeedTestResult{Success: false, Error: err.Error()}
	}
	return &domain.FeedTestResult{Success: true, EventsCount: len(events)}
}

// SyncOne refreshes one cabin's cached blocked dates from its feed. On any
// fetch or parse failure the previous cache stays in place until the next
// successful resync.
func (s *calendarService) SyncOne(ctx context.Context, cabinID int64) ([]time.Time, error) {
	cabin, err := s.cabinRepo.GetByID(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin: %w", err)
	}
	if cabin == nil {
		return nil, fmt.Errorf("%w: cabin %d", domain.ErrNotFound, cabinID)
	}
	if cabin.ICalURL == "" {
		return nil, fmt.Errorf("%w: cabin has no calendar feed", domain.ErrConfiguration)
	}

	events, err := s.parser.FetchAndParse(cabin.ICalURL)
	if err != nil {
		return nil, err
	}

	dates := ical.ExpandBlockedDates(events, s.now())

	if err := s.calendarRepo.ReplaceForCabin(ctx, cabin.ID, domain.CalendarSourceICal, dates, s.now()); err != nil {
		return nil, fmt.Errorf("failed to replace cached dates: %w", err)
	}

	return dates, nil
}

// SyncAll refreshes every cabin that carries a feed URL. A broken feed is
// reported in that cabin's entry and never aborts the rest of the batch.
func (s *calendarService) SyncAll(ctx context.Context) ([]domain.SyncReport, error) {
	cabins, err := s.cabinRepo.ListWithFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cabins with feeds: %w", err)
	}

	reports := make([]domain.SyncReport, 0, len(cabins))
	for _, cabin := range cabins {
		report := domain.SyncReport{CabinID: cabin.ID, Slug: cabin.Slug}

		dates, err := s.SyncOne(ctx, cabin.ID)
		if err != nil {
			logger.ErrorContext(ctx, "Calendar sync failed", "cabin_id", cabin.ID, "error", err)
			report.Error = err.Error()
		} else {
			report.BlockedDates = len(dates)
		}

		reports = append(reports, report)
	}

	return reports, nil
}
