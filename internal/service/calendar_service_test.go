package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
)

const feedBody = `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:res-1
DTSTART;VALUE=DATE:20250110
DTEND;VALUE=DATE:20250113
END:VEVENT
END:VCALENDAR
`

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newCalendarFixture(cabin *domain.Cabin) (*calendarService, *mockCalendarRepo) {
	calRepo := newMockCalendarRepo()
	svc := NewCalendarService(newMockCabinRepo(cabin), calRepo, 2*time.Second).(*calendarService)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, calRepo
}

func TestSyncOneReplacesCache(t *testing.T) {
	srv := feedServer(t, http.StatusOK, feedBody)
	cabin := activeCabin()
	cabin.ICalURL = srv.URL
	svc, calRepo := newCalendarFixture(cabin)

	dates, err := svc.SyncOne(context.Background(), cabin.ID)
	if err != nil {
		t.Fatalf("SyncOne: %v", err)
	}

	want := []string{"2025-01-10", "2025-01-11", "2025-01-12"}
	if len(dates) != len(want) {
		t.Fatalf("got %v, want %v", dates, want)
	}
	for i, d := range dates {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, d.Format("2006-01-02"), want[i])
		}
	}
	if len(calRepo.replaced[cabin.ID]) != 3 {
		t.Errorf("cache not replaced: %v", calRepo.replaced)
	}
}

func TestSyncOneWithoutFeed(t *testing.T) {
	svc, _ := newCalendarFixture(activeCabin())

	_, err := svc.SyncOne(context.Background(), 10)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestSyncOneKeepsCacheOnBrokenFeed(t *testing.T) {
	srv := feedServer(t, http.StatusInternalServerError, "boom")
	cabin := activeCabin()
	cabin.ICalURL = srv.URL
	svc, calRepo := newCalendarFixture(cabin)

	_, err := svc.SyncOne(context.Background(), cabin.ID)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if len(calRepo.replaced) != 0 {
		t.Error("cache must not be touched when the fetch fails")
	}
}

func TestTestFeedDoesNotPersist(t *testing.T) {
	srv := feedServer(t, http.StatusOK, feedBody)
	svc, calRepo := newCalendarFixture(activeCabin())

	result := svc.TestFeed(context.Background(), srv.URL)
	if !result.Success || result.EventsCount != 1 {
		t.Errorf("result = %+v, want success with 1 event", result)
	}
	if len(calRepo.replaced) != 0 {
		t.Error("test feed must never write to the cache")
	}

	htmlSrv := feedServer(t, http.StatusOK, "<html></html>")
	res := svc.TestFeed(context.Background(), htmlSrv.URL)
	if res.Success || res.Error == "" {
		t.Errorf("broken feed result = %+v, want failure with message", res)
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	goodSrv := feedServer(t, http.StatusOK, feedBody)
	badSrv := feedServer(t, http.StatusNotFound, "")

	good := activeCabin()
	good.Slug = "good"
	good.ICalURL = goodSrv.URL
	bad := &domain.Cabin{ID: 11, OwnerID: 5, Slug: "bad", Status: domain.CabinActive, ICalURL: badSrv.URL}

	calRepo := newMockCalendarRepo()
	svc := NewCalendarService(newMockCabinRepo(good, bad), calRepo, 2*time.Second).(*calendarService)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	reports, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	bySlug := make(map[string]domain.SyncReport)
	for _, r := range reports {
		bySlug[r.Slug] = r
	}
	if bySlug["good"].Error != "" || bySlug["good"].BlockedDates != 3 {
		t.Errorf("good report = %+v", bySlug["good"])
	}
	if bySlug["bad"].Error == "" {
		t.Errorf("bad report should carry the error, got %+v", bySlug["bad"])
	}
}
