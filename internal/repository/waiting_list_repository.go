package repository

import (
	"context"
	"database/sql"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
)

// WaitingListRepo provides data access to the waiting_list table.
type WaitingListRepo struct{ DB *sql.DB }

func NewWaitingListRepo(db *sql.DB) *WaitingListRepo { return &WaitingListRepo{DB: db} }

// CreateTx appends an entry to the event's queue. created_at is assigned by
// the database clock so queue order does not depend on app server clocks.
func (r *WaitingListRepo) CreateTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64, count int) (*model.WaitingListEntry, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO waiting_list (event_id, user_id, count) VALUES (?,?,?)`,
		eventID, userID, count)
	if err != nil {
		return nil, errors.Wrap(err, "insert waiting list entry")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "waiting list last insert id")
	}
	e := &model.WaitingListEntry{ID: uint64(id), EventID: eventID, UserID: userID, Count: count}
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM waiting_list WHERE id=?`, e.ID).Scan(&e.CreatedAt); err != nil {
		return nil, errors.Wrap(err, "read waiting list created_at")
	}
	return e, nil
}

// ListByEventTx returns the event's queue in service order together with
// each requester's email. Rows are locked so a concurrent withdrawal waits
// for the replay that is serving them.
func (r *WaitingListRepo) ListByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) ([]model.WaitingListEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT w.id, w.event_id, w.user_id, w.count, w.created_at, u.email
		 FROM waiting_list w JOIN users u ON u.id = w.user_id
		 WHERE w.event_id = ?
		 ORDER BY w.created_at ASC, w.id ASC
		 FOR UPDATE`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list waiting list")
	}
	defer rows.Close()

	var entries []model.WaitingListEntry
	for rows.Next() {
		var w model.WaitingListEntry
		if err := rows.Scan(&w.ID, &w.EventID, &w.UserID, &w.Count, &w.CreatedAt, &w.UserEmail); err != nil {
			return nil, errors.Wrap(err, "scan waiting list entry")
		}
		entries = append(entries, w)
	}
	return entries, errors.Wrap(rows.Err(), "iterate waiting list")
}

// ListByUser returns the user's pending entries across all events.
func (r *WaitingListRepo) ListByUser(ctx context.Context, userID uint64) ([]model.WaitingListEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, event_id, user_id, count, created_at FROM waiting_list
		 WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user waiting list")
	}
	defer rows.Close()

	entries := []model.WaitingListEntry{}
	for rows.Next() {
		var w model.WaitingListEntry
		if err := rows.Scan(&w.ID, &w.EventID, &w.UserID, &w.Count, &w.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan waiting list entry")
		}
		entries = append(entries, w)
	}
	return entries, errors.Wrap(rows.Err(), "iterate user waiting list")
}

// GetForUserTx returns the entry only when userID owns it.
func (r *WaitingListRepo) GetForUserTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (*model.WaitingListEntry, error) {
	var w model.WaitingListEntry
	err := tx.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, count, created_at FROM waiting_list
		 WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&w.ID, &w.EventID, &w.UserID, &w.Count, &w.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get waiting list entry")
	}
	return &w, nil
}

// DeleteTx removes a fully served or withdrawn entry.
func (r *WaitingListRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM waiting_list WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete waiting list entry")
	}
	return nil
}

// UpdateCountTx stores the remaining count of a partially served entry. The
// entry keeps its created_at and therefore its place in the queue.
func (r *WaitingListRepo) UpdateCountTx(ctx context.Context, tx *sql.Tx, id uint64, count int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE waiting_list SET count = ? WHERE id = ?`, count, id); err != nil {
		return errors.Wrap(err, "update waiting list count")
	}
	return nil
}
