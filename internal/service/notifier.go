package service

import (
	"context"
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

// Notifier accepts side effects that run after a transaction commits. Both
// methods return immediately; delivery failures are never reported back.
type Notifier interface {
	BookingConfirmed(c notify.Confirmation)
	Mail(m notify.Message)
}

// InventoryStore runs fn inside one transaction holding row locks.
type InventoryStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx repository.InventoryTx) error) error
}

// runTx times the transaction under op.
func runTx(ctx context.Context, store InventoryStore, op string, fn func(ctx context.Context, tx repository.InventoryTx) error) error {
	start := time.Now()
	err := store.InTx(ctx, fn)
	observability.BookingTxDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return err
}

func confirmation(user uint64, email string, ev *model.Event, tickets []model.Ticket, fromWaitlist bool) notify.Confirmation {
	refs := make([]notify.TicketRef, len(tickets))
	for i, t := range tickets {
		refs[i] = notify.TicketRef{ID: t.ID, Code: t.Code}
	}
	return notify.Confirmation{
		UserID:       user,
		UserEmail:    email,
		EventID:      ev.ID,
		EventName:    ev.Name,
		EventDate:    ev.Date,
		Tickets:      refs,
		FromWaitlist: fromWaitlist,
		ConfirmedAt:  time.Now().UTC(),
	}
}

func ticketIDs(tickets []model.Ticket) []uint64 {
	ids := make([]uint64, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}
