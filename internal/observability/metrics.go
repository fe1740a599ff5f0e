package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes recorded on BookingRequests.
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeWaitlisted = "waitlisted"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb_booking_requests_total",
			Help: "Booking requests by outcome",
		},
		[]string{"outcome"},
	)

	WaitlistTicketsAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eb_waitlist_tickets_assigned_total",
			Help: "Tickets handed to waiting list entries by replay",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eb_notifications_total",
			Help: "Notifications by kind and result",
		},
		[]string{"kind", "result"},
	)

	BookingTxDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eb_booking_tx_seconds",
			Help:    "Duration of inventory transactions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eb_rate_limit_exceeded_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
