package domain

import "time"

// CachedCalendarDate is one blocked date for one cabin, sourced from an
// external feed. A successful sync replaces the full set for a cabin.
type CachedCalendarDate struct {
	CabinID     int64     `json:"cabin_id"`
	BlockedDate time.Time `json:"blocked_date"`
	Source      string    `json:"source"`
	SyncedAt    time.Time `json:"synced_at"`
}

const CalendarSourceICal = "ical"

// FeedTestResult reports a dry-run fetch of a host-supplied feed URL.
type FeedTestResult struct {
	Success     bool   `json:"success"`
	EventsCount int    `json:"events_count"`
	Error       string `json:"error,omitempty"`
}

// SyncReport is the per-cabin outcome of a batch calendar sync.
type SyncReport struct {
	CabinID      int64  `json:"cabin_id"`
	Slug         string `json:"slug"`
	BlockedDates int    `json:"blocked_dates"`
	Error        string `json:"error,omitempty"`
}
