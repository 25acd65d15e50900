package domain

import "time"

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingApproved, BookingRejected:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// BookingRequest is a guest's ask to stay at one cabin for a date range.
// GuestID is nil for anonymous requests; the guest is then carried only as
// name and email on the row, never materialized as a user.
type BookingRequest struct {
	ID          int64         `json:"id"`
	CabinID     int64         `json:"cabin_id"`
	GuestID     *int64        `json:"guest_id,omitempty"`
	HostID      int64         `json:"host_id"`
	GuestName   string        `json:"guest_name"`
	GuestEmail  string        `json:"guest_email"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	GuestsCount int           `json:"guests_count"`
	Message     string        `json:"message,omitempty"`
	Status      BookingStatus `json:"status"`
	HostComment string        `json:"host_comment,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Nights returns the number of nights covered by the request.
func (b *BookingRequest) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

// IsAnonymous reports whether the request was submitted without an account.
func (b *BookingRequest) IsAnonymous() bool {
	return b.GuestID == nil
}

type CreateBookingRequest struct {
	CabinID     int64     `json:"cabin_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	GuestsCount int       `json:"guests_count"`
	Message     string    `json:"message"`
}
