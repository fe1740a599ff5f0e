package audit

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
)

type fakeColl struct {
	docs []interface{}
	err  error
}

func (f *fakeColl) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return &mongo.InsertOneResult{}, nil
}

func confirmation(fromWaitlist bool) notify.Confirmation {
	return notify.Confirmation{
		UserID:       4,
		EventID:      9,
		EventName:    "Jazz Night",
		Tickets:      []notify.TicketRef{{ID: 1, Code: "a"}, {ID: 2, Code: "b"}},
		FromWaitlist: fromWaitlist,
		ConfirmedAt:  time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestSinkInsertsRecord(t *testing.T) {
	coll := &fakeColl{}
	s := &Sink{coll: coll, log: observability.Discard()}

	require.NoError(t, s.Deliver(context.Background(), confirmation(false)))
	require.NoError(t, s.Deliver(context.Background(), confirmation(true)))
	require.Len(t, coll.docs, 2)

	first := coll.docs[0].(Record)
	assert.Equal(t, ActionBookingConfirmed, first.Action)
	assert.Equal(t, uint64(9), first.EventID)
	assert.Equal(t, []uint64{1, 2}, first.Data["ticket_ids"])
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, ActionWaitlistFulfilled, coll.docs[1].(Record).Action)
}

func TestSinkReturnsInsertError(t *testing.T) {
	s := &Sink{coll: &fakeColl{err: errors.New("no primary")}, log: observability.Discard()}
	err := s.Deliver(context.Background(), confirmation(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit log")
}
