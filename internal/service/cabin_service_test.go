package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
	"github.com/naodludzie/backend/pkg/events"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Chata nad jeziorem":      "chata-nad-jeziorem",
		"Dom w Bieszczadach! #3":  "dom-w-bieszczadach-3",
		"Głusza — mazurska łąka":  "glusza-mazurska-laka",
		"???":                     "cabin",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateCabinUniquifiesSlug(t *testing.T) {
	repo := newMockCabinRepo()
	repo.slugTaken["chata-nad-jeziorem"] = true
	repo.slugTaken["chata-nad-jeziorem-2"] = true

	svc := NewCabinService(repo, newMockUserRepo(), &mockEventBus{}, testConfig())
	cabin, err := svc.Create(context.Background(), 5, &domain.Cabin{
		Title:         "Chata nad jeziorem",
		PricePerNight: 300,
		MaxGuests:     2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cabin.Slug != "chata-nad-jeziorem-3" {
		t.Errorf("slug = %q, want chata-nad-jeziorem-3", cabin.Slug)
	}
	if cabin.Status != domain.CabinPending {
		t.Errorf("new listings must await review, got %s", cabin.Status)
	}
}

func TestCreateCabinValidation(t *testing.T) {
	svc := NewCabinService(newMockCabinRepo(), newMockUserRepo(), &mockEventBus{}, testConfig())

	cases := []domain.Cabin{
		{Title: "", PricePerNight: 100, MaxGuests: 2},
		{Title: "ok", PricePerNight: 0, MaxGuests: 2},
		{Title: "ok", PricePerNight: 100, MaxGuests: 0},
		{Title: "ok", PricePerNight: 100, MaxGuests: 2,
			Images: []domain.CabinImage{{URL: "a", IsMain: true}, {URL: "b", IsMain: true}}},
		{Title: "ok", PricePerNight: 100, MaxGuests: 2,
			ExtraFees: []domain.ExtraFee{{Name: "x", Amount: 10, Unit: "weekly"}}},
	}
	for i, c := range cases {
		if _, err := svc.Create(context.Background(), 5, &c); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestReviewApproveStampsWindow(t *testing.T) {
	cabin := activeCabin()
	cabin.Status = domain.CabinPending
	repo := newMockCabinRepo(cabin)
	bus := &mockEventBus{}
	svc := NewCabinService(repo, newMockUserRepo(&domain.User{ID: 5, Email: "host@example.com"}), bus, testConfig())

	before := time.Now()
	updated, err := svc.Review(context.Background(), 10, true, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if updated.Status != domain.CabinActive {
		t.Errorf("status = %s, want active", updated.Status)
	}
	if updated.ExpiresAt == nil {
		t.Fatal("activation must stamp expires_at")
	}
	window := updated.ExpiresAt.Sub(before)
	if window < 59*24*time.Hour || window > 61*24*time.Hour {
		t.Errorf("window = %v, want about 60 days", window)
	}
	if len(bus.published) != 1 || bus.published[0].subject != events.CabinStatusChanged {
		t.Errorf("published = %v", bus.subjects())
	}
}

func TestReviewRejectsNonPending(t *testing.T) {
	svc := NewCabinService(newMockCabinRepo(activeCabin()), newMockUserRepo(), &mockEventBus{}, testConfig())

	if _, err := svc.Review(context.Background(), 10, true, ""); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestUpdateCabinOwnership(t *testing.T) {
	cabin := activeCabin()
	svc := NewCabinService(newMockCabinRepo(cabin), newMockUserRepo(), &mockEventBus{}, testConfig())

	edit := *cabin
	edit.Title = "Nowa nazwa"
	if _, err := svc.Update(context.Background(), 99, &edit); !errors.Is(err, domain.ErrAuthorization) {
		t.Errorf("err = %v, want ErrAuthorization", err)
	}
	if _, err := svc.Update(context.Background(), 5, &edit); err != nil {
		t.Errorf("owner edit failed: %v", err)
	}
}

func TestExpireStaleCabinsNotifiesHosts(t *testing.T) {
	repo := newMockCabinRepo()
	repo.demoted = []domain.Cabin{*activeCabin()}
	bus := &mockEventBus{}
	svc := NewCabinService(repo, newMockUserRepo(&domain.User{ID: 5, Email: "host@example.com"}), bus, testConfig())

	count, err := svc.ExpireStale(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	event, ok := bus.published[0].data.(events.CabinStatusChangedEvent)
	if !ok {
		t.Fatalf("payload type %T", bus.published[0].data)
	}
	if event.HostEmail != "host@example.com" {
		t.Errorf("host email = %q", event.HostEmail)
	}
}
