package domain

import "time"

// ChatMessage is one message in the thread scoped to an approved booking
// request. Append-only.
type ChatMessage struct {
	ID               int64     `json:"id"`
	BookingRequestID int64     `json:"booking_request_id"`
	SenderID         int64     `json:"sender_id"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}
