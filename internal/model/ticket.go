package model

import "time"

// Ticket is one confirmed seat for one user at one event. Code is the
// public identifier printed into the QR code.
type Ticket struct {
	ID        uint64    `json:"id"`
	Code      string    `json:"code"`
	EventID   uint64    `json:"event_id"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
