package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
)

func newEventFixture(t *testing.T, total int) (*EventService, *BookingService, *fakeStore, *recordingNotifier) {
	t.Helper()
	bookings, store, n := newBookingFixture(t, total)
	return NewEventService(store, store, n, observability.Discard()), bookings, store, n
}

func ptr[T any](v T) *T { return &v }

func TestCreateEventValidates(t *testing.T) {
	svc, _, _, _ := newEventFixture(t, 1)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, alice, CreateEventInput{Name: "x", Date: time.Now(), TotalTickets: 0})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateEvent(ctx, alice, CreateEventInput{Name: " ", Date: time.Now(), TotalTickets: 3})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateEvent(ctx, alice, CreateEventInput{Name: "x", Date: time.Now(), TotalTickets: 3, TicketPrice: -1})
	assert.ErrorIs(t, err, ErrValidation)

	ev, err := svc.CreateEvent(ctx, alice, CreateEventInput{Name: "Gala", Date: time.Now(), TotalTickets: 50, TicketPrice: 20})
	require.NoError(t, err)
	assert.Equal(t, 50, ev.AvailableTickets)
	assert.Equal(t, model.EventStatusAllowingBookings, ev.Status)
	assert.Equal(t, alice, ev.UserID)
}

func TestUpdateEventRequiresOwner(t *testing.T) {
	svc, _, _, _ := newEventFixture(t, 2)

	_, err := svc.UpdateEvent(context.Background(), bob, event, model.EventPatch{Name: ptr("mine now")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), bob, event), ErrForbidden)
}

func TestUpdateEventGrowthReplaysWaitlist(t *testing.T) {
	svc, bookings, store, n := newEventFixture(t, 1)
	ctx := context.Background()

	_, err := bookings.CreateBooking(ctx, alice, event, 1)
	require.NoError(t, err)
	_, err = bookings.CreateBooking(ctx, bob, event, 2)
	require.NoError(t, err)

	ev, err := svc.UpdateEvent(ctx, alice, event, model.EventPatch{TotalTickets: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, ev.TotalTickets)
	assert.Equal(t, 1, ev.AvailableTickets)
	assert.Len(t, store.ticketsOf(bob, event), 2)
	assert.Empty(t, store.queue(event))
	assert.Len(t, n.confirmationsFor(bob), 1)
}

func TestUpdateEventCannotShrinkBelowSold(t *testing.T) {
	svc, bookings, store, _ := newEventFixture(t, 5)
	ctx := context.Background()

	_, err := bookings.CreateBooking(ctx, bob, event, 4)
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, alice, event, model.EventPatch{TotalTickets: ptr(3)})
	assert.ErrorIs(t, err, ErrValidation)

	ev, err := svc.UpdateEvent(ctx, alice, event, model.EventPatch{TotalTickets: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 0, ev.AvailableTickets)
	assert.Equal(t, 0, store.available(event))
}

func TestUpdateEventRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newEventFixture(t, 1)
	_, err := svc.UpdateEvent(context.Background(), alice, event, model.EventPatch{Status: ptr("PARTY")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdateEvent(context.Background(), alice, event, model.EventPatch{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancellationOnClosedEventServesWaitlist(t *testing.T) {
	for _, status := range []string{model.EventStatusBookingsClosed, model.EventStatusOngoing, model.EventStatusCancelled} {
		t.Run(status, func(t *testing.T) {
			svc, bookings, store, n := newEventFixture(t, 1)
			ctx := context.Background()

			a, err := bookings.CreateBooking(ctx, alice, event, 1)
			require.NoError(t, err)
			_, err = bookings.CreateBooking(ctx, bob, event, 1)
			require.NoError(t, err)

			_, err = svc.UpdateEvent(ctx, alice, event, model.EventPatch{Status: ptr(status)})
			require.NoError(t, err)
			require.NoError(t, bookings.DeleteBooking(ctx, alice, a.Tickets[0].ID))

			assert.Len(t, store.ticketsOf(bob, event), 1)
			assert.Equal(t, 0, store.available(event))
			assert.Empty(t, store.queue(event))
			assert.Len(t, n.confirmationsFor(bob), 1)
		})
	}
}

func TestStatusChangeAloneDoesNotReplay(t *testing.T) {
	svc, bookings, store, _ := newEventFixture(t, 2)
	ctx := context.Background()

	_, err := bookings.CreateBooking(ctx, bob, event, 3)
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, alice, event, model.EventPatch{Status: ptr(model.EventStatusBookingsClosed)})
	require.NoError(t, err)
	_, err = svc.UpdateEvent(ctx, alice, event, model.EventPatch{Status: ptr(model.EventStatusAllowingBookings)})
	require.NoError(t, err)

	assert.Equal(t, 2, store.available(event))
	require.Len(t, store.queue(event), 1)
	assert.Equal(t, 3, store.queue(event)[0].Count)
}

func TestDeleteEventCascades(t *testing.T) {
	svc, bookings, store, _ := newEventFixture(t, 2)
	ctx := context.Background()

	_, err := bookings.CreateBooking(ctx, bob, event, 2)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEvent(ctx, alice, event))

	_, err = svc.GetEvent(ctx, event)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.ticketsOf(bob, event))
}
