package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

// EventStore is the plain persistence EventService needs outside locked
// transactions.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Delete(ctx context.Context, id uint64) error
}

// CreateEventInput carries the organiser-supplied fields of a new event.
type CreateEventInput struct {
	Name         string
	Description  string
	Date         time.Time
	Duration     int
	Location     string
	TotalTickets int
	TicketPrice  float64
}

type EventService struct {
	events    EventStore
	inventory InventoryStore
	notifier  Notifier
	log       logrus.FieldLogger
}

func NewEventService(events EventStore, inventory InventoryStore, notifier Notifier, log logrus.FieldLogger) *EventService {
	return &EventService{events: events, inventory: inventory, notifier: notifier, log: log}
}

// CreateEvent stores a new event owned by ownerID with every ticket
// available.
func (s *EventService) CreateEvent(ctx context.Context, ownerID uint64, in CreateEventInput) (*model.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, fail(ErrValidation, "name is required")
	case in.Date.IsZero():
		return nil, fail(ErrValidation, "date is required")
	case in.TotalTickets <= 0:
		return nil, fail(ErrValidation, "total_tickets must be a positive integer")
	case in.TicketPrice < 0:
		return nil, fail(ErrValidation, "ticket_price cannot be negative")
	case in.Duration < 0:
		return nil, fail(ErrValidation, "duration cannot be negative")
	}

	ev := &model.Event{
		UserID:       ownerID,
		Name:         in.Name,
		Description:  in.Description,
		Date:         in.Date.UTC(),
		Duration:     in.Duration,
		Location:     in.Location,
		TotalTickets: in.TotalTickets,
		TicketPrice:  in.TicketPrice,
		Status:       model.EventStatusAllowingBookings,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	s.log.WithFields(logrus.Fields{"event_id": ev.ID, "user_id": ownerID}).Info("event created")
	return ev, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return ev, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	return events, nil
}

// UpdateEvent applies patch under the event row lock. Growing total_tickets
// frees seats and replays the waiting list with them.
func (s *EventService) UpdateEvent(ctx context.Context, callerID, eventID uint64, patch model.EventPatch) (*model.Event, error) {
	if patch.Empty() {
		return nil, fail(ErrValidation, "nothing to update")
	}

	var (
		updated *model.Event
		served  []notify.Confirmation
	)
	err := runTx(ctx, s.inventory, "update_event", func(ctx context.Context, tx repository.InventoryTx) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return notFoundOr(err, "Event not found")
		}
		if ev.UserID != callerID {
			return fail(ErrForbidden, "You are not allowed to update this event")
		}

		freed, err := applyEventPatch(ev, patch)
		if err != nil {
			return err
		}
		if served, err = replayWaitlist(ctx, tx, ev, freed); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, ev); err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"event_id": eventID, "reassigned": len(served)}).Info("event updated")
	for _, c := range served {
		s.notifier.BookingConfirmed(c)
	}
	return updated, nil
}

// applyEventPatch copies the whitelisted fields of p onto ev and returns
// how many seats a capacity increase freed.
func applyEventPatch(ev *model.Event, p model.EventPatch) (int, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return 0, fail(ErrValidation, "name cannot be empty")
		}
		ev.Name = name
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Date != nil {
		ev.Date = p.Date.UTC()
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.Duration != nil {
		if *p.Duration < 0 {
			return 0, fail(ErrValidation, "duration cannot be negative")
		}
		ev.Duration = *p.Duration
	}
	if p.TicketPrice != nil {
		if *p.TicketPrice < 0 {
			return 0, fail(ErrValidation, "ticket_price cannot be negative")
		}
		ev.TicketPrice = *p.TicketPrice
	}
	if p.Status != nil {
		if !model.ValidEventStatus(*p.Status) {
			return 0, fail(ErrValidation, "unknown status %q", *p.Status)
		}
		ev.Status = *p.Status
	}

	freed := 0
	if p.TotalTickets != nil {
		total := *p.TotalTickets
		if total <= 0 {
			return 0, fail(ErrValidation, "total_tickets must be a positive integer")
		}
		if sold := ev.SoldTickets(); total < sold {
			return 0, fail(ErrValidation, "total_tickets cannot be lower than the %d tickets already sold", sold)
		}
		delta := total - ev.TotalTickets
		ev.TotalTickets = total
		ev.AvailableTickets += delta
		freed = max(delta, 0)
	}
	return freed, nil
}

// DeleteEvent removes an event owned by callerID together with its tickets
// and waiting list.
func (s *EventService) DeleteEvent(ctx context.Context, callerID, eventID uint64) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return notFoundOr(err, "Event not found")
	}
	if ev.UserID != callerID {
		return fail(ErrForbidden, "You are not allowed to delete this event")
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return notFoundOr(err, "Event not found")
	}
	s.log.WithField("event_id", eventID).Info("event deleted")
	return nil
}
