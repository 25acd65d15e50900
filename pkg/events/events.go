package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/naodludzie/backend/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	BookingRequested = "booking.requested"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingExpired   = "booking.expired"

	CabinStatusChanged = "cabin.status_changed"

	PaymentCheckoutCreated     = "payment.checkout.created"
	PaymentAccountUpdated      = "payment.account.updated"
	ManualVerificationApproved = "payment.manual.verified"

	ContactReceived = "contact.received"
)

// Event payloads
type BookingRequestedEvent struct {
	RequestID   int64     `json:"request_id"`
	CabinID     int64     `json:"cabin_id"`
	CabinTitle  string    `json:"cabin_title"`
	HostEmail   string    `json:"host_email"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	Anonymous   bool      `json:"anonymous"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	GuestsCount int       `json:"guests_count"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingDecidedEvent struct {
	RequestID   int64  `json:"request_id"`
	CabinTitle  string `json:"cabin_title"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HostComment string `json:"host_comment,omitempty"`
}

type BookingExpiredEvent struct {
	RequestID  int64  `json:"request_id"`
	CabinTitle string `json:"cabin_title"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	HostEmail  string `json:"host_email"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type CabinStatusChangedEvent struct {
	CabinID    int64  `json:"cabin_id"`
	CabinTitle string `json:"cabin_title"`
	HostEmail  string `json:"host_email"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

type PaymentCheckoutCreatedEvent struct {
	RequestID   int64  `json:"request_id"`
	CabinID     int64  `json:"cabin_id"`
	SessionID   string `json:"session_id"`
	TotalGrosze int64  `json:"total_grosze"`
	FeeGrosze   int64  `json:"fee_grosze"`
}

type PaymentAccountUpdatedEvent struct {
	HostID         int64  `json:"host_id"`
	HostEmail      string `json:"host_email"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type ManualVerificationApprovedEvent struct {
	CabinID    int64  `json:"cabin_id"`
	CabinTitle string `json:"cabin_title"`
	HostEmail  string `json:"host_email"`
}

type ContactReceivedEvent struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
