package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/internal/http/handlers"
	"github.com/naodludzie/backend/internal/service"
)

type mockBookingService struct {
	blockedCalls int
	quoteCalls   int
}

func (m *mockBookingService) Quote(context.Context, int64, time.Time, time.Time, bool) (*domain.Quote, error) {
	m.quoteCalls++
	return &domain.Quote{}, nil
}

func (m *mockBookingService) BlockedDates(context.Context, int64) ([]time.Time, error) {
	m.blockedCalls++
	return nil, nil
}

func (m *mockBookingService) Create(context.Context, *domain.CreateBookingRequest, *int64) (*domain.BookingRequest, error) {
	return nil, nil
}
func (m *mockBookingService) GetForParticipant(context.Context, int64, int64) (*domain.BookingRequest, error) {
	return nil, nil
}
func (m *mockBookingService) ListByHost(context.Context, int64, int, int, *domain.BookingStatus) ([]domain.BookingRequest, error) {
	return nil, nil
}
func (m *mockBookingService) ListByGuest(context.Context, int64, int, int) ([]domain.BookingRequest, error) {
	return nil, nil
}
func (m *mockBookingService) Transition(context.Context, int64, int64, domain.BookingStatus, string) (*domain.BookingRequest, error) {
	return nil, nil
}
func (m *mockBookingService) ExpireStale(context.Context, time.Time) (int, error) { return 0, nil }

type mockCalendarService struct{}

func (mockCalendarService) TestFeed(context.Context, string) *domain.FeedTestResult {
	return &domain.FeedTestResult{}
}
func (mockCalendarService) SyncOne(context.Context, int64) ([]time.Time, error) { return nil, nil }
func (mockCalendarService) SyncAll(context.Context) ([]domain.SyncReport, error) {
	return nil, nil
}

type mockScorer struct{}

func (mockScorer) Score(context.Context, float64, float64) (domain.OffGridScore, error) {
	return domain.OffGridScore{}, nil
}

var _ service.BookingService = (*mockBookingService)(nil)
var _ service.CalendarService = mockCalendarService{}

func newCabinsRouter(cabins *mockCabinService, bookings *mockBookingService) http.Handler {
	h := handlers.NewCabinsHandler(cabins, bookings, mockCalendarService{}, mockScorer{}, "test-secret")
	return h.Routes()
}

func TestPublicCabinRoutesHideInactiveListings(t *testing.T) {
	cabins := &mockCabinService{cabin: &domain.Cabin{
		ID:            7,
		Slug:          "chata-w-lesie",
		PricePerNight: 300,
		Status:        domain.CabinPending,
	}}
	bookings := &mockBookingService{}
	router := newCabinsRouter(cabins, bookings)

	for _, path := range []string{
		"/chata-w-lesie",
		"/chata-w-lesie/blocked-dates",
		"/chata-w-lesie/quote?start=2025-07-10&end=2025-07-13",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
	if bookings.blockedCalls != 0 || bookings.quoteCalls != 0 {
		t.Errorf("booking service reached for a pending listing (blocked=%d, quote=%d)",
			bookings.blockedCalls, bookings.quoteCalls)
	}
}

func TestPublicCabinRoutesServeActiveListings(t *testing.T) {
	cabins := &mockCabinService{cabin: &domain.Cabin{
		ID:            7,
		Slug:          "chata-w-lesie",
		PricePerNight: 300,
		Status:        domain.CabinActive,
	}}
	bookings := &mockBookingService{}
	router := newCabinsRouter(cabins, bookings)

	req := httptest.NewRequest(http.MethodGet, "/chata-w-lesie/blocked-dates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if bookings.blockedCalls != 1 {
		t.Errorf("blocked-dates calls = %d, want 1", bookings.blockedCalls)
	}
}
