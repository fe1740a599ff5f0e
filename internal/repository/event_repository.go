package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
)

const eventColumns = `id, user_id, name, description, date, location, duration, total_tickets,
	available_tickets, ticket_price, status, created_at, updated_at`

// EventRepo provides data access to the events table.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// Create inserts ev and fills its ID and timestamps. A new event starts with
// every ticket available.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	now := time.Now().UTC().Truncate(time.Second)
	ev.AvailableTickets = ev.TotalTickets
	if ev.Status == "" {
		ev.Status = model.EventStatusAllowingBookings
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (user_id, name, description, date, location, duration, total_tickets,
			available_tickets, ticket_price, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.UserID, ev.Name, ev.Description, ev.Date.UTC(), ev.Location, ev.Duration, ev.TotalTickets,
		ev.AvailableTickets, ev.TicketPrice, ev.Status, now, now)
	if err != nil {
		if mysqlErrNumber(err) == mysqlForeignKeyParent {
			return ErrNotFound
		}
		return errors.Wrap(err, "insert event")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "event last insert id")
	}
	ev.ID = uint64(id)
	ev.CreatedAt, ev.UpdatedAt = now, now
	return nil
}

// GetByID returns the event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	return getEvent(ctx, r.DB, id, false)
}

// List returns every event ordered by date.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var ev model.Event
		if err := scanEvent(rows, &ev); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		events = append(events, ev)
	}
	return events, errors.Wrap(rows.Err(), "iterate events")
}

// Delete removes the event; its tickets and waiting list go with it through
// ON DELETE CASCADE.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LockTx reads the event with SELECT ... FOR UPDATE. Every write to
// available_tickets happens while this lock is held.
func (r *EventRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	return getEvent(ctx, tx, id, true)
}

// UpdateTx writes every mutable column of ev. The caller must hold the row
// lock taken by LockTx.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sql.Tx, ev *model.Event) error {
	ev.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := tx.ExecContext(ctx,
		`UPDATE events SET name=?, description=?, date=?, location=?, duration=?, total_tickets=?,
			available_tickets=?, ticket_price=?, status=?, updated_at=?
		 WHERE id=?`,
		ev.Name, ev.Description, ev.Date.UTC(), ev.Location, ev.Duration, ev.TotalTickets,
		ev.AvailableTickets, ev.TicketPrice, ev.Status, ev.UpdatedAt, ev.ID)
	if err != nil {
		if mysqlErrNumber(err) == mysqlCheckViolated {
			return ErrConflict
		}
		return errors.Wrap(err, "update event")
	}
	return nil
}

// SetAvailableTx stores a new available_tickets value.
func (r *EventRepo) SetAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, available int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE events SET available_tickets=? WHERE id=?`, available, id)
	if err != nil {
		if mysqlErrNumber(err) == mysqlCheckViolated {
			return ErrConflict
		}
		return errors.Wrap(err, "set available tickets")
	}
	return nil
}

func getEvent(ctx context.Context, q querier, id uint64, lock bool) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	var ev model.Event
	if err := scanEvent(q.QueryRowContext(ctx, query, id), &ev); err != nil {
		return nil, notFound(err, "get event")
	}
	return &ev, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanEvent(s scanner, ev *model.Event) error {
	return s.Scan(&ev.ID, &ev.UserID, &ev.Name, &ev.Description, &ev.Date, &ev.Location, &ev.Duration,
		&ev.TotalTickets, &ev.AvailableTickets, &ev.TicketPrice, &ev.Status,
		&ev.CreatedAt, &ev.UpdatedAt)
}
