// Package notify turns domain events into transactional emails. Delivery is
// best effort: a failed send is logged and dropped, never retried into the
// request path.
package notify

import (
	"encoding/json"

	"github.com/naodludzie/backend/internal/platform/mailer"
	"github.com/naodludzie/backend/pkg/config"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
)

const queueGroup = "notifier"

type Dispatcher struct {
	bus    events.Subscriber
	mailer mailer.Service
	cfg    *config.Config
}

func NewDispatcher(bus events.Subscriber, mailSvc mailer.Service, cfg *config.Config) *Dispatcher {
	return &Dispatcher{bus: bus, mailer: mailSvc, cfg: cfg}
}

// Start registers the queue subscriptions. Queue groups keep each event
// delivered once across replicas.
func (d *Dispatcher) Start() error {
	subs := map[string]func(msg *events.Message){
		events.BookingRequested:           d.onBookingRequested,
		events.BookingApproved:            d.onBookingApproved,
		events.BookingRejected:            d.onBookingRejected,
		events.BookingExpired:             d.onBookingExpired,
		events.CabinStatusChanged:         d.onCabinStatusChanged,
		events.PaymentAccountUpdated:      d.onPaymentAccountUpdated,
		events.ManualVerificationApproved: d.onManualVerificationApproved,
		events.ContactReceived:            d.onContactReceived,
	}

	for subject, handler := range subs {
		if err := d.bus.QueueSubscribe(subject, queueGroup, handler); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) onBookingRequested(msg *events.Message) {
	var e events.BookingRequestedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(bookingRequestedEmail(e))
}

func (d *Dispatcher) onBookingApproved(msg *events.Message) {
	var e events.BookingDecidedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(bookingApprovedEmail(e))
}

func (d *Dispatcher) onBookingRejected(msg *events.Message) {
	var e events.BookingDecidedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(bookingRejectedEmail(e))
}

func (d *Dispatcher) onBookingExpired(msg *events.Message) {
	var e events.BookingExpiredEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(bookingExpiredGuestEmail(e))
	d.send(bookingExpiredHostEmail(e))
}

func (d *Dispatcher) onCabinStatusChanged(msg *events.Message) {
	var e events.CabinStatusChangedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(cabinStatusEmail(e))
}

func (d *Dispatcher) onPaymentAccountUpdated(msg *events.Message) {
	var e events.PaymentAccountUpdatedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(paymentAccountEmail(e))
}

func (d *Dispatcher) onManualVerificationApproved(msg *events.Message) {
	var e events.ManualVerificationApprovedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(manualVerificationEmail(e))
}

func (d *Dispatcher) onContactReceived(msg *events.Message) {
	var e events.ContactReceivedEvent
	if !d.decode(msg, &e) {
		return
	}
	d.send(contactEmail(d.cfg.Email.AdminEmail, e))
}

func (d *Dispatcher) decode(msg *events.Message, v interface{}) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		logger.Error("Failed to decode event payload", "subject", msg.Subject, "error", err)
		return false
	}
	return true
}

func (d *Dispatcher) send(email Email) {
	if email.ToEmail == "" {
		logger.Warn("Dropping notification with no recipient", "subject", email.Subject)
		return
	}

	id, err := d.mailer.Send(email.ToEmail, email.ToName, email.Subject, email.Text, email.HTML)
	if err != nil {
		logger.Error("Failed to send notification email",
			"to", email.ToEmail, "subject", email.Subject, "error", err)
		return
	}
	logger.Debug("Notification email sent", "to", email.ToEmail, "message_id", id)
}
