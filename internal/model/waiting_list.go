package model

import "time"

// WaitingListEntry is a queued request for Count tickets that could not be
// served when it was placed. Entries are served oldest first, ordered by
// (CreatedAt, ID).
type WaitingListEntry struct {
	ID        uint64    `json:"id"`
	EventID   uint64    `json:"event_id"`
	UserID    uint64    `json:"user_id"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`

	// UserEmail is filled by queries that join users, for notifications.
	UserEmail string `json:"-"`
}
