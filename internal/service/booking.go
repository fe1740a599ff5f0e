package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

var tracer = otel.Tracer("github.com/Sayrikey1/Event-Booking-App/internal/service")

// BookingStatus is the outcome of CreateBooking.
type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingWaitlisted BookingStatus = "WAITLISTED"
)

const (
	msgBooked     = "Booking created successfully"
	msgWaitlisted = "Tickets are not available at the moment. You have been added to the waiting list"
)

// BookingResult describes a successful CreateBooking. Exactly one of
// Tickets and Waitlist is set.
type BookingResult struct {
	Status   BookingStatus
	Message  string
	Tickets  []model.Ticket
	Waitlist *model.WaitingListEntry
}

// TicketIDs returns the ids of the issued tickets.
func (r BookingResult) TicketIDs() []uint64 { return ticketIDs(r.Tickets) }

// BookingStore is the persistence BookingService needs: locked transactions
// for allocation and plain reads for listing.
type BookingStore interface {
	InventoryStore
	TicketForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error)
	TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	WaitingByUser(ctx context.Context, userID uint64) ([]model.WaitingListEntry, error)
}

// BookingService allocates tickets against an event's finite inventory and
// falls back to a FIFO waiting list. All allocation state lives in the
// store and is guarded by the event row lock, so any number of server
// processes may run against the same database.
type BookingService struct {
	store    BookingStore
	notifier Notifier
	log      logrus.FieldLogger
}

func NewBookingService(store BookingStore, notifier Notifier, log logrus.FieldLogger) *BookingService {
	return &BookingService{store: store, notifier: notifier, log: log}
}

// CreateBooking issues count tickets when the event has that many seats
// left and queues the whole request on the waiting list otherwise.
func (s *BookingService) CreateBooking(ctx context.Context, userID, eventID uint64, count int) (*BookingResult, error) {
	ctx, span := tracer.Start(ctx, "booking.create", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("event.id", int64(eventID)),
		attribute.Int("ticket.count", count),
	))
	defer span.End()

	if count <= 0 {
		observability.BookingRequests.WithLabelValues(observability.OutcomeRejected).Inc()
		return nil, fail(ErrValidation, "ticket_count must be a positive integer")
	}

	var (
		result  *BookingResult
		confirm *notify.Confirmation
	)
	err := runTx(ctx, s.store, "create", func(ctx context.Context, tx repository.InventoryTx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return notFoundOr(err, "User not found")
		}
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}
		if !ev.AcceptsBookings() {
			return fail(ErrConflict, "Event is not accepting bookings (status %s)", ev.Status)
		}

		if ev.AvailableTickets < count {
			entry, err := tx.EnqueueWaiting(ctx, ev.ID, userID, count)
			if err != nil {
				return err
			}
			result = &BookingResult{Status: BookingWaitlisted, Message: msgWaitlisted, Waitlist: entry}
			return nil
		}

		tickets, err := tx.CreateTickets(ctx, ev.ID, userID, count)
		if err != nil {
			return err
		}
		if err := tx.SetAvailable(ctx, ev.ID, ev.AvailableTickets-count); err != nil {
			return err
		}
		c := confirmation(userID, user.Email, ev, tickets, false)
		result, confirm = &BookingResult{Status: BookingConfirmed, Message: msgBooked, Tickets: tickets}, &c
		return nil
	})
	if err != nil {
		outcome := observability.OutcomeError
		if s.recordFailure(span, err) {
			outcome = observability.OutcomeRejected
		}
		observability.BookingRequests.WithLabelValues(outcome).Inc()
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "event_id": eventID, "count": count})
	if result.Status == BookingWaitlisted {
		observability.BookingRequests.WithLabelValues(observability.OutcomeWaitlisted).Inc()
		log.WithField("waitlist_id", result.Waitlist.ID).Info("booking waitlisted")
		return result, nil
	}
	observability.BookingRequests.WithLabelValues(observability.OutcomeConfirmed).Inc()
	log.WithField("ticket_ids", result.TicketIDs()).Info("booking confirmed")
	s.notifier.BookingConfirmed(*confirm)
	return result, nil
}

// GetBooking returns one of the caller's tickets.
func (s *BookingService) GetBooking(ctx context.Context, userID, ticketID uint64) (*model.Ticket, error) {
	t, err := s.store.TicketForUser(ctx, ticketID, userID)
	if err != nil {
		return nil, notFoundOr(err, "Booking not found")
	}
	return t, nil
}

// GetAllBookings returns every ticket the caller holds.
func (s *BookingService) GetAllBookings(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	tickets, err := s.store.TicketsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	return tickets, nil
}

// DeleteBooking cancels one ticket and replays the waiting list with the
// freed seat in the same transaction.
func (s *BookingService) DeleteBooking(ctx context.Context, userID, ticketID uint64) error {
	ctx, span := tracer.Start(ctx, "booking.delete", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("ticket.id", int64(ticketID)),
	))
	defer span.End()

	var served []notify.Confirmation
	err := runTx(ctx, s.store, "delete", func(ctx context.Context, tx repository.InventoryTx) error {
		t, err := tx.GetTicket(ctx, ticketID, userID, false)
		if err != nil {
			return notFoundOr(err, "Booking not found")
		}
		ev, err := tx.LockEvent(ctx, t.EventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}
		// re-read under the event lock; a concurrent cancel may have won
		if _, err := tx.GetTicket(ctx, ticketID, userID, true); err != nil {
			return notFoundOr(err, "Booking not found")
		}
		if err := tx.DeleteTicket(ctx, ticketID); err != nil {
			return notFoundOr(err, "Booking not found")
		}

		ev.AvailableTickets++
		if served, err = replayWaitlist(ctx, tx, ev, 1); err != nil {
			return err
		}
		return tx.SetAvailable(ctx, ev.ID, ev.AvailableTickets)
	})
	if err != nil {
		s.recordFailure(span, err)
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "ticket_id": ticketID, "reassigned": len(served)}).
		Info("booking cancelled")
	s.dispatch(served)
	return nil
}

// DeleteAllBookings cancels every ticket the caller holds for an event and
// replays the waiting list with all of them.
func (s *BookingService) DeleteAllBookings(ctx context.Context, userID, eventID uint64) (int, error) {
	ctx, span := tracer.Start(ctx, "booking.delete_all", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("event.id", int64(eventID)),
	))
	defer span.End()

	var (
		freed  int
		served []notify.Confirmation
	)
	err := runTx(ctx, s.store, "delete_all", func(ctx context.Context, tx repository.InventoryTx) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}
		if freed, err = tx.DeleteUserTickets(ctx, eventID, userID); err != nil {
			return err
		}
		if freed == 0 {
			return fail(ErrNotFound, "No bookings found for this event")
		}

		ev.AvailableTickets += freed
		if served, err = replayWaitlist(ctx, tx, ev, freed); err != nil {
			return err
		}
		return tx.SetAvailable(ctx, ev.ID, ev.AvailableTickets)
	})
	if err != nil {
		s.recordFailure(span, err)
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "event_id": eventID, "freed": freed, "reassigned": len(served)}).
		Info("bookings cancelled")
	s.dispatch(served)
	return freed, nil
}

// ListWaitlist returns the caller's pending waiting list entries.
func (s *BookingService) ListWaitlist(ctx context.Context, userID uint64) ([]model.WaitingListEntry, error) {
	entries, err := s.store.WaitingByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list waiting list")
	}
	return entries, nil
}

// CancelWaitlist withdraws one of the caller's waiting list entries. It
// takes the event lock so it cannot race a replay serving the same entry.
func (s *BookingService) CancelWaitlist(ctx context.Context, userID, entryID uint64) error {
	return runTx(ctx, s.store, "cancel_waitlist", func(ctx context.Context, tx repository.InventoryTx) error {
		entry, err := tx.GetWaiting(ctx, entryID, userID)
		if err != nil {
			return notFoundOr(err, "Waiting list entry not found")
		}
		if _, err := tx.LockEvent(ctx, entry.EventID); err != nil {
			return notFoundOr(err, "Event not found")
		}
		if _, err := tx.GetWaiting(ctx, entryID, userID); err != nil {
			return notFoundOr(err, "Waiting list entry not found")
		}
		return tx.DeleteWaiting(ctx, entryID)
	})
}

func (s *BookingService) dispatch(confirmations []notify.Confirmation) {
	for _, c := range confirmations {
		s.notifier.BookingConfirmed(c)
	}
}

// recordFailure marks the span and logs internal errors. It reports whether
// err was a caller-facing rejection.
func (s *BookingService) recordFailure(span trace.Span, err error) bool {
	var se *Error
	if errors.As(err, &se) {
		span.SetStatus(codes.Error, se.Message)
		return true
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "internal error")
	s.log.WithError(err).Error("booking transaction failed")
	return false
}
