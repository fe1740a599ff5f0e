// Package notify delivers booking confirmations and account emails outside
// the request path. Callers enqueue on a Dispatcher and never wait for, or
// see the failure of, a delivery.
package notify

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// TicketRef identifies one issued ticket in a confirmation.
type TicketRef struct {
	ID   uint64 `json:"id"`
	Code string `json:"code"`
}

// Confirmation describes tickets that were just issued to one user.
type Confirmation struct {
	UserID       uint64      `json:"user_id"`
	UserEmail    string      `json:"user_email"`
	EventID      uint64      `json:"event_id"`
	EventName    string      `json:"event_name"`
	EventDate    time.Time   `json:"event_date"`
	Tickets      []TicketRef `json:"tickets"`
	FromWaitlist bool        `json:"from_waitlist"`
	ConfirmedAt  time.Time   `json:"confirmed_at"`
}

// Attachment is a file carried by a Message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is a plain text email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sink receives confirmations taken off the dispatcher queue.
type Sink interface {
	Deliver(ctx context.Context, c Confirmation) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, c Confirmation) error

func (f SinkFunc) Deliver(ctx context.Context, c Confirmation) error { return f(ctx, c) }

// MultiSink delivers to every sink and combines their errors. One failing
// sink does not stop the others.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, c Confirmation) error {
	var err error
	for _, s := range m {
		err = errors.CombineErrors(err, s.Deliver(ctx, c))
	}
	return err
}
