// Package audit keeps an append-only trail of issued tickets in MongoDB.
package audit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sayrikey1/Event-Booking-App/internal/notify"
)

const (
	ActionBookingConfirmed  = "booking.confirmed"
	ActionWaitlistFulfilled = "waitlist.fulfilled"

	collection = "audit_logs"
)

type inserter interface {
	InsertOne(ctx context.Context, doc interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Record is one document in audit_logs.
type Record struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    uint64    `bson:"user_id"`
	EventID   uint64    `bson:"event_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

// Sink writes a Record for every confirmation. It satisfies notify.Sink.
type Sink struct {
	coll inserter
	log  logrus.FieldLogger
}

func NewSink(db *mongo.Database, log logrus.FieldLogger) *Sink {
	return &Sink{coll: db.Collection(collection), log: log}
}

func (s *Sink) Deliver(ctx context.Context, c notify.Confirmation) error {
	_, err := s.coll.InsertOne(ctx, recordFor(c, time.Now().UTC()))
	if err != nil {
		s.log.WithError(err).WithField("event_id", c.EventID).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

func recordFor(c notify.Confirmation, now time.Time) Record {
	action := ActionBookingConfirmed
	if c.FromWaitlist {
		action = ActionWaitlistFulfilled
	}
	ids := make([]uint64, 0, len(c.Tickets))
	codes := make([]string, 0, len(c.Tickets))
	for _, t := range c.Tickets {
		ids = append(ids, t.ID)
		codes = append(codes, t.Code)
	}
	return Record{
		ID:        uuid.NewString(),
		Action:    action,
		UserID:    c.UserID,
		EventID:   c.EventID,
		Timestamp: now,
		Data: bson.M{
			"event_name":   c.EventName,
			"ticket_ids":   ids,
			"ticket_codes": codes,
			"count":        len(c.Tickets),
			"confirmed_at": c.ConfirmedAt.UTC().Format(time.RFC3339),
		},
	}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}
	return client, nil
}
