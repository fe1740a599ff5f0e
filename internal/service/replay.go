package service

import (
	"context"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

// replayWaitlist hands up to freed seats to the event's waiting list in
// arrival order. The caller holds the event lock and has already credited
// the freed seats to ev.AvailableTickets; replay takes back what it assigns
// from ev.AvailableTickets in memory, and the caller persists the net value
// once.
//
// Replay runs whatever the event status is. On return freed is spent or the
// queue is empty. Each served entry yields one confirmation, sent after
// commit.
func replayWaitlist(ctx context.Context, tx repository.InventoryTx, ev *model.Event, freed int) ([]notify.Confirmation, error) {
	if freed <= 0 {
		return nil, nil
	}
	if freed > ev.AvailableTickets {
		freed = ev.AvailableTickets
	}

	queue, err := tx.WaitingList(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	var confirmations []notify.Confirmation
	for _, entry := range queue {
		if freed == 0 {
			break
		}
		assign := min(freed, entry.Count)

		tickets, err := tx.CreateTickets(ctx, ev.ID, entry.UserID, assign)
		if err != nil {
			return nil, err
		}
		if assign == entry.Count {
			err = tx.DeleteWaiting(ctx, entry.ID)
		} else {
			err = tx.SetWaitingCount(ctx, entry.ID, entry.Count-assign)
		}
		if err != nil {
			return nil, err
		}

		freed -= assign
		ev.AvailableTickets -= assign
		observability.WaitlistTicketsAssigned.Add(float64(assign))
		confirmations = append(confirmations, confirmation(entry.UserID, entry.UserEmail, ev, tickets, true))
	}
	return confirmations, nil
}
