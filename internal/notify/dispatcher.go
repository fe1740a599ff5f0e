package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sayrikey1/Event-Booking-App/internal/observability"
)

// Notification kinds, used as the "kind" metric label.
const (
	KindConfirmation = "confirmation"
	KindMail         = "mail"
)

// drainTimeout bounds how long queued jobs may run after shutdown starts.
const drainTimeout = 5 * time.Second

type job struct {
	kind         string
	confirmation Confirmation
	mail         Message
}

// Dispatcher is a bounded in-process queue with a fixed worker pool. Enqueue
// methods never block: when the queue is full the notification is dropped
// and logged. Delivery is at most once.
type Dispatcher struct {
	sink    Sink
	mailer  Mailer
	log     logrus.FieldLogger
	workers int
	jobs    chan job
}

// NewDispatcher routes confirmations to sink and plain mail to mailer.
func NewDispatcher(sink Sink, mailer Mailer, log logrus.FieldLogger, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sink:    sink,
		mailer:  mailer,
		log:     log,
		workers: workers,
		jobs:    make(chan job, queueSize),
	}
}

// BookingConfirmed queues a confirmation.
func (d *Dispatcher) BookingConfirmed(c Confirmation) {
	d.enqueue(job{kind: KindConfirmation, confirmation: c})
}

// Mail queues a plain email.
func (d *Dispatcher) Mail(m Message) {
	d.enqueue(job{kind: KindMail, mail: m})
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		observability.Notifications.WithLabelValues(j.kind, "dropped").Inc()
		d.log.WithField("kind", j.kind).Warn("notification queue full, dropping")
	}
}

// Run processes queued jobs until ctx is cancelled, then gives the jobs
// still queued a short grace period before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-d.jobs:
					d.handle(ctx, j)
				}
			}
		}()
	}
	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case j := <-d.jobs:
			d.handle(drainCtx, j)
		default:
			return nil
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, j job) {
	var err error
	switch j.kind {
	case KindConfirmation:
		err = d.sink.Deliver(ctx, j.confirmation)
	case KindMail:
		err = d.mailer.Send(ctx, j.mail)
	}
	if err != nil {
		observability.Notifications.WithLabelValues(j.kind, "failed").Inc()
		d.log.WithError(err).WithField("kind", j.kind).Error("notification failed")
		return
	}
	observability.Notifications.WithLabelValues(j.kind, "sent").Inc()
}
