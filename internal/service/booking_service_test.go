package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/pkg/events"
)

func activeCabin() *domain.Cabin {
	return &domain.Cabin{
		ID:            10,
		OwnerID:       5,
		Title:         "Chata nad jeziorem",
		PricePerNight: 350,
		MinNights:     2,
		MaxGuests:     4,
		Status:        domain.CabinActive,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBookingFixture(cabin *domain.Cabin) (BookingService, *mockBookingRepo, *mockCalendarRepo, *mockEventBus) {
	bookingRepo := newMockBookingRepo()
	calendarRepo := newMockCalendarRepo()
	bus := &mockEventBus{}
	svc := NewBookingService(
		bookingRepo,
		newMockCabinRepo(cabin),
		calendarRepo,
		newMockUserRepo(&domain.User{ID: 5, Email: "host@example.com"}),
		bus,
		testConfig(),
	)
	return svc, bookingRepo, calendarRepo, bus
}

func validRequest() *domain.CreateBookingRequest {
	return &domain.CreateBookingRequest{
		CabinID:     10,
		GuestName:   "Anna",
		GuestEmail:  "anna@example.com",
		StartDate:   date(2025, 7, 10),
		EndDate:     date(2025, 7, 13),
		GuestsCount: 2,
	}
}

func TestCreateBookingRequest(t *testing.T) {
	svc, repo, _, bus := newBookingFixture(activeCabin())

	booking, err := svc.Create(context.Background(), validRequest(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if booking.Status != domain.BookingPending {
		t.Errorf("status = %s, want pending", booking.Status)
	}
	if booking.HostID != 5 {
		t.Errorf("host id = %d, want 5 (denormalized from cabin owner)", booking.HostID)
	}
	if !booking.IsAnonymous() {
		t.Error("request without a token should be anonymous")
	}
	if repo.created == nil {
		t.Fatal("nothing persisted")
	}
	if len(bus.published) != 1 || bus.published[0].subject != events.BookingRequested {
		t.Errorf("published = %v, want one booking.requested", bus.subjects())
	}
}

func TestCreateRejectsBadRanges(t *testing.T) {
	svc, _, _, _ := newBookingFixture(activeCabin())

	cases := []struct {
		name  string
		edit  func(*domain.CreateBookingRequest)
	}{
		{"end before start", func(r *domain.CreateBookingRequest) {
			r.StartDate, r.EndDate = r.EndDate, r.StartDate
		}},
		{"equal dates", func(r *domain.CreateBookingRequest) {
			r.EndDate = r.StartDate
		}},
		{"below min nights", func(r *domain.CreateBookingRequest) {
			r.EndDate = r.StartDate.AddDate(0, 0, 1)
		}},
		{"too many guests", func(r *domain.CreateBookingRequest) {
			r.GuestsCount = 5
		}},
		{"missing email", func(r *domain.CreateBookingRequest) {
			r.GuestEmail = ""
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.edit(req)
			if _, err := svc.Create(context.Background(), req, nil); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateRejectsTakenDates(t *testing.T) {
	svc, repo, calRepo, _ := newBookingFixture(activeCabin())

	repo.overlaps = true
	if _, err := svc.Create(context.Background(), validRequest(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("overlapping approved booking: err = %v, want ErrValidation", err)
	}

	repo.overlaps = false
	calRepo.blocked = true
	if _, err := svc.Create(context.Background(), validRequest(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("calendar-blocked dates: err = %v, want ErrValidation", err)
	}
}

func TestCreateRejectsInactiveCabin(t *testing.T) {
	cabin := activeCabin()
	cabin.Status = domain.CabinPending
	svc, _, _, _ := newBookingFixture(cabin)

	if _, err := svc.Create(context.Background(), validRequest(), nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func pendingBooking() *domain.BookingRequest {
	return &domain.BookingRequest{
		ID:         1,
		CabinID:    10,
		HostID:     5,
		GuestName:  "Anna",
		GuestEmail: "anna@example.com",
		StartDate:  date(2025, 7, 10),
		EndDate:    date(2025, 7, 13),
		Status:     domain.BookingPending,
	}
}

func newTransitionFixture(b *domain.BookingRequest) (BookingService, *mockBookingRepo, *mockEventBus) {
	repo := newMockBookingRepo(b)
	bus := &mockEventBus{}
	svc := NewBookingService(
		repo,
		newMockCabinRepo(activeCabin()),
		newMockCalendarRepo(),
		newMockUserRepo(&domain.User{ID: 5, Email: "host@example.com"}),
		bus,
		testConfig(),
	)
	return svc, repo, bus
}

func TestTransitionApprove(t *testing.T) {
	svc, _, bus := newTransitionFixture(pendingBooking())

	updated, err := svc.Transition(context.Background(), 1, 5, domain.BookingApproved, "zapraszam")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.BookingApproved {
		t.Errorf("status = %s, want approved", updated.Status)
	}
	if updated.HostComment != "zapraszam" {
		t.Errorf("comment = %q", updated.HostComment)
	}
	if len(bus.published) != 1 || bus.published[0].subject != events.BookingApproved {
		t.Errorf("published = %v, want one booking.approved", bus.subjects())
	}
}

func TestTransitionAuthorizationAndState(t *testing.T) {
	svc, _, _ := newTransitionFixture(pendingBooking())

	if _, err := svc.Transition(context.Background(), 1, 99, domain.BookingApproved, ""); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("wrong host: err = %v, want ErrAuthorization", err)
	}
	if _, err := svc.Transition(context.Background(), 1, 5, domain.BookingPending, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("target pending: err = %v, want ErrValidation", err)
	}

	decided := pendingBooking()
	decided.Status = domain.BookingRejected
	svc2, _, _ := newTransitionFixture(decided)
	if _, err := svc2.Transition(context.Background(), 1, 5, domain.BookingApproved, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("already decided: err = %v, want ErrInvalidState", err)
	}
}

func TestTransitionApprovalLosesRace(t *testing.T) {
	svc, repo, bus := newTransitionFixture(pendingBooking())
	repo.approveLost = true

	_, err := svc.Transition(context.Background(), 1, 5, domain.BookingApproved, "")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("no event should be published on a lost approval, got %v", bus.subjects())
	}
}

func TestExpireStalePublishesPerRequest(t *testing.T) {
	svc, repo, bus := newTransitionFixture(pendingBooking())
	repo.expired = []domain.BookingRequest{
		*pendingBooking(),
		{ID: 2, CabinID: 10, HostID: 5, GuestName: "Jan", GuestEmail: "jan@example.com",
			StartDate: date(2025, 8, 1), EndDate: date(2025, 8, 3)},
	}

	count, err := svc.ExpireStale(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(bus.published) != 2 {
		t.Fatalf("published %d events, want 2", len(bus.published))
	}
	for _, p := range bus.published {
		if p.subject != events.BookingExpired {
			t.Errorf("subject = %s, want booking.expired", p.subject)
		}
	}
}

func TestExpireStaleSecondRunIsNoop(t *testing.T) {
	svc, repo, bus := newTransitionFixture(pendingBooking())
	repo.expired = []domain.BookingRequest{*pendingBooking()}

	first, err := svc.ExpireStale(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("first ExpireStale: %v", err)
	}
	if first != 1 {
		t.Fatalf("first run count = %d, want 1", first)
	}

	second, err := svc.ExpireStale(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("second ExpireStale: %v", err)
	}
	if second != 0 {
		t.Errorf("second run count = %d, want 0", second)
	}
	if len(bus.published) != 1 {
		t.Errorf("published %d events across both runs, want 1", len(bus.published))
	}
}
