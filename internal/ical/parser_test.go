package ical

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/naodludzie/backend/internal/domain"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:abc-123
DTSTART;VALUE=DATE:20250110
DTEND;VALUE=DATE:20250113
SUMMARY:Reserved
END:VEVENT
END:VCALENDAR
`

func TestParseAllDayEvent(t *testing.T) {
	p := NewParser(time.Second)
	events, err := p.Parse(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.UID != "abc-123" || e.Summary != "Reserved" {
		t.Errorf("unexpected event fields: %+v", e)
	}
	if !e.Start.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", e.Start)
	}
	if !e.End.Equal(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", e.End)
	}
}

func TestExpandExcludesCheckoutDay(t *testing.T) {
	events := []Event{{
		Start: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
	}}

	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := ExpandBlockedDates(events, today)

	want := []string{"2025-01-10", "2025-01-11", "2025-01-12"}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates %v, want %d", len(dates), dates, len(want))
	}
	for i, d := range dates {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, d.Format("2006-01-02"), want[i])
		}
	}
}

func TestExpandSkipsPastAndDedupes(t *testing.T) {
	events := []Event{
		{
			Start: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			// Overlaps the first event
			Start: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	today := time.Date(2025, 1, 11, 15, 30, 0, 0, time.UTC)
	dates := ExpandBlockedDates(events, today)

	// 10th is in the past, 11th/12th from the first event, 13th from the
	// second; the shared 12th appears once.
	want := []string{"2025-01-11", "2025-01-12", "2025-01-13"}
	if len(dates) != len(want) {
		t.Fatalf("got %v, want %v", dates, want)
	}
	for i, d := range dates {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, d.Format("2006-01-02"), want[i])
		}
	}
}

func TestParseFoldedLines(t *testing.T) {
	feed := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:xyz\r\n" +
		"SUMMARY:Very long booking summa\r\n" +
		" ry continued\r\n" +
		"DTSTART:20250601\r\n" +
		"DTEND:20250603\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	p := NewParser(time.Second)
	events, err := p.Parse(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Summary != "Very long booking summary continued" {
		t.Errorf("folded summary = %q", events[0].Summary)
	}
}

func TestParseRejectsNonCalendar(t *testing.T) {
	p := NewParser(time.Second)
	_, err := p.Parse(strings.NewReader("<html><body>not a calendar</body></html>"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestParseSkipsEventsWithoutDates(t *testing.T) {
	feed := "BEGIN:VCALENDAR\n" +
		"BEGIN:VEVENT\n" +
		"UID:no-dates\n" +
		"END:VEVENT\n" +
		"BEGIN:VEVENT\n" +
		"DTSTART:20250601\n" +
		"DTEND:20250602\n" +
		"END:VEVENT\n" +
		"END:VCALENDAR\n"

	p := NewParser(time.Second)
	events, err := p.Parse(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1 (dateless event dropped)", len(events))
	}
}

func TestParseDateTimeForms(t *testing.T) {
	cases := map[string]time.Time{
		"20250110":          time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		"20250110T120000Z":  time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		"2025-01-10":        time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		"not-a-date":        {},
	}
	for in, want := range cases {
		if got := parseDateTime(in); !got.Equal(want) {
			t.Errorf("parseDateTime(%q) = %v, want %v", in, got, want)
		}
	}
}
