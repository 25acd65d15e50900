// Package ical parses external iCal feeds into blocked calendar dates.
// Feeds come from arbitrary publishers (Booking.com, Airbnb, Google
// Calendar) and are only loosely validated.
package ical

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/naodludzie/backend/internal/domain"
)

// Event is one VEVENT with its stay window. End follows iCal semantics:
// the checkout day itself is not part of the stay.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

type Parser struct {
	client *http.Client
}

func NewParser(timeout time.Duration) *Parser {
	return &Parser{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchAndParse downloads and parses an iCal feed from a URL.
func (p *Parser) FetchAndParse(url string) ([]Event, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching calendar: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: calendar returned status %d", domain.ErrUpstream, resp.StatusCode)
	}

	return p.Parse(resp.Body)
}

// Parse reads iCal data from a reader. The document must open with a
// BEGIN:VCALENDAR marker; anything else is treated as a broken feed.
func (p *Parser) Parse(r io.Reader) ([]Event, error) {
	var events []Event
	var current *Event
	var currentField string
	var folded strings.Builder
	sawMarker := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// Folded lines continue the previous property
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if currentField != "" {
				folded.WriteString(strings.TrimLeft(line, " \t"))
			}
			continue
		}

		if currentField != "" && current != nil {
			setField(current, currentField, folded.String())
		}
		currentField = ""
		folded.Reset()

		if !sawMarker {
			trimmed := strings.TrimPrefix(strings.TrimSpace(line), "\ufeff")
			if trimmed == "" {
				continue
			}
			if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
				return nil, fmt.Errorf("%w: feed does not begin with BEGIN:VCALENDAR", domain.ErrValidation)
			}
			sawMarker = true
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := line[:colonIdx]
		value := line[colonIdx+1:]

		// Strip property parameters, e.g. DTSTART;VALUE=DATE:20231215
		if semicolonIdx := strings.Index(field, ";"); semicolonIdx != -1 {
			field = field[:semicolonIdx]
		}

		switch field {
		case "BEGIN":
			if value == "VEVENT" {
				current = &Event{}
			}
		case "END":
			if value == "VEVENT" && current != nil {
				if !current.Start.IsZero() && !current.End.IsZero() {
					events = append(events, *current)
				}
				current = nil
			}
		case "UID", "SUMMARY", "DTSTART", "DTEND":
			if current != nil {
				currentField = field
				folded.WriteString(value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	if !sawMarker {
		return nil, fmt.Errorf("%w: feed does not begin with BEGIN:VCALENDAR", domain.ErrValidation)
	}

	return events, nil
}

func setField(event *Event, field, value string) {
	value = strings.ReplaceAll(value, "\\n", "\n")
	value = strings.ReplaceAll(value, "\\,", ",")
	value = strings.ReplaceAll(value, "\\;", ";")
	value = strings.ReplaceAll(value, "\\\\", "\\")

	switch field {
	case "UID":
		event.UID = value
	case "SUMMARY":
		event.Summary = value
	case "DTSTART":
		event.Start = parseDateTime(value)
	case "DTEND":
		event.End = parseDateTime(value)
	}
}

// parseDateTime handles the all-day and timestamped forms feeds actually use.
func parseDateTime(value string) time.Time {
	formats := []string{
		"20060102",             // all-day
		"20060102T150405Z",     // UTC datetime
		"20060102T150405",      // floating datetime
		"2006-01-02",           // a few feeds emit ISO dates
		"2006-01-02T15:04:05Z",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}

	return time.Time{}
}

// ExpandBlockedDates flattens events into the set of calendar dates in
// [start, end), so the checkout day stays bookable. Dates before today
// are skipped and duplicates across overlapping events collapse into one.
func ExpandBlockedDates(events []Event, today time.Time) []time.Time {
	today = Midnight(today)
	seen := make(map[time.Time]bool)
	var dates []time.Time

	for _, e := range events {
		start := Midnight(e.Start)
		end := Midnight(e.End)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if d.Before(today) || seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
	}

	return dates
}

// Midnight truncates a time to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
