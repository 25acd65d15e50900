// Package sweeper runs the background maintenance jobs: expiring stale
// booking requests, demoting lapsed listings, resyncing external calendars
// and pruning the rate-limit table.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/pkg/logger"
)

type Sweeper struct {
	cron          *cron.Cron
	bookings      service.BookingService
	cabins        service.CabinService
	calendars     service.CalendarService
	rateLimitRepo postgres.RateLimitRepository
	syncSpec      string
}

func New(
	bookings service.BookingService,
	cabins service.CabinService,
	calendars service.CalendarService,
	rateLimitRepo postgres.RateLimitRepository,
	calendarSyncSpec string,
) *Sweeper {
	return &Sweeper{
		cron:          cron.New(),
		bookings:      bookings,
		cabins:        cabins,
		calendars:     calendars,
		rateLimitRepo: rateLimitRepo,
		syncSpec:      calendarSyncSpec,
	}
}

// Start registers the jobs and launches the scheduler. Each job gets its
// own bounded context so a wedged run cannot stall the next one.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.expireBookings); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.expireCabins); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.cleanupRateLimits); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.syncSpec, s.syncCalendars); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Background sweeper started", "calendar_sync_spec", s.syncSpec)
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) expireBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.bookings.ExpireStale(ctx, time.Now())
	if err != nil {
		logger.Error("Booking expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		logger.Info("Expired stale booking requests", "count", count)
	}
}

func (s *Sweeper) expireCabins() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.cabins.ExpireStale(ctx, time.Now())
	if err != nil {
		logger.Error("Cabin expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		logger.Info("Demoted expired listings", "count", count)
	}
}

func (s *Sweeper) cleanupRateLimits() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.rateLimitRepo.CleanupExpired(ctx)
	if err != nil {
		logger.Error("Rate limit cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Debug("Pruned expired rate limit rows", "count", removed)
	}
}

func (s *Sweeper) syncCalendars() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	reports, err := s.calendars.SyncAll(ctx)
	if err != nil {
		logger.Error("Calendar sync sweep failed", "error", err)
		return
	}

	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("Calendar sync finished", "cabins", len(reports), "failed", failed)
}
