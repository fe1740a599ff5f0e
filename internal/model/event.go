package model

import "time"

// Event statuses. Cancelled and completed events take no new bookings.
const (
	EventStatusAllowingBookings = "ALLOWING_BOOKINGS"
	EventStatusBookingsClosed   = "BOOKINGS_CLOSED"
	EventStatusCancelled        = "EVENT_CANCELLED"
	EventStatusOngoing          = "EVENT_ONGOING"
	EventStatusCompleted        = "EVENT_COMPLETED"
)

// ValidEventStatus reports whether s is a known event status.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusAllowingBookings, EventStatusBookingsClosed, EventStatusCancelled,
		EventStatusOngoing, EventStatusCompleted:
		return true
	}
	return false
}

// Event is a bookable occurrence with a fixed ticket inventory.
//
// AvailableTickets is the number of seats not held by a ticket. It is only
// ever changed while the row is locked and always stays within
// [0, TotalTickets].
type Event struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"` // organiser
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	Duration         int       `json:"duration"` // minutes
	TotalTickets     int       `json:"total_tickets"`
	AvailableTickets int       `json:"available_tickets"`
	TicketPrice      float64   `json:"ticket_price"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AcceptsBookings reports whether new bookings may be placed.
func (e Event) AcceptsBookings() bool {
	return e.Status != EventStatusCancelled && e.Status != EventStatusCompleted
}

// SoldTickets is the number of seats currently held by tickets.
func (e Event) SoldTickets() int { return e.TotalTickets - e.AvailableTickets }

// EventPatch lists the columns an organiser may update. Nil fields are
// left untouched.
type EventPatch struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Date         *time.Time `json:"date"`
	Location     *string    `json:"location"`
	Duration     *int       `json:"duration"`
	TotalTickets *int       `json:"total_tickets"`
	TicketPrice  *float64   `json:"ticket_price"`
	Status       *string    `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Date == nil && p.Location == nil &&
		p.Duration == nil &&
		p.TotalTickets == nil && p.TicketPrice == nil && p.Status == nil
}
