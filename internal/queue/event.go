// Package queue moves booking confirmations through RabbitMQ so that mail
// rendering and delivery happen in a consumer instead of the API process.
package queue

import (
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
)

// BookingQueue is the durable queue confirmations are published to.
const BookingQueue = "booking.confirmed"

// BookingConfirmedEvent is the wire form of a confirmation. It carries
// everything the consumer needs to render the mail without a database.
type BookingConfirmedEvent struct {
	UserID       uint64          `json:"user_id"`
	UserEmail    string          `json:"user_email"`
	EventID      uint64          `json:"event_id"`
	EventName    string          `json:"event_name"`
	EventDate    string          `json:"event_date"`
	Tickets      []TicketPayload `json:"tickets"`
	FromWaitlist bool            `json:"from_waitlist"`
	ConfirmedAt  string          `json:"confirmed_at"`
}

type TicketPayload struct {
	ID   uint64 `json:"id"`
	Code string `json:"code"`
}

// FromConfirmation builds the wire event. Timestamps are RFC 3339 in UTC.
func FromConfirmation(c notify.Confirmation) BookingConfirmedEvent {
	ev := BookingConfirmedEvent{
		UserID:       c.UserID,
		UserEmail:    c.UserEmail,
		EventID:      c.EventID,
		EventName:    c.EventName,
		EventDate:    c.EventDate.UTC().Format(time.RFC3339),
		FromWaitlist: c.FromWaitlist,
		ConfirmedAt:  c.ConfirmedAt.UTC().Format(time.RFC3339),
		Tickets:      make([]TicketPayload, 0, len(c.Tickets)),
	}
	for _, t := range c.Tickets {
		ev.Tickets = append(ev.Tickets, TicketPayload{ID: t.ID, Code: t.Code})
	}
	return ev
}

// Confirmation converts the wire event back. Unparseable timestamps come
// back as the zero time.
func (e BookingConfirmedEvent) Confirmation() notify.Confirmation {
	c := notify.Confirmation{
		UserID:       e.UserID,
		UserEmail:    e.UserEmail,
		EventID:      e.EventID,
		EventName:    e.EventName,
		FromWaitlist: e.FromWaitlist,
		Tickets:      make([]notify.TicketRef, 0, len(e.Tickets)),
	}
	c.EventDate, _ = time.Parse(time.RFC3339, e.EventDate)
	c.ConfirmedAt, _ = time.Parse(time.RFC3339, e.ConfirmedAt)
	for _, t := range e.Tickets {
		c.Tickets = append(c.Tickets, notify.TicketRef{ID: t.ID, Code: t.Code})
	}
	return c
}
