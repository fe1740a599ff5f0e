package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// TicketRepo provides data access to the tickets table.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

// CreateTx mints n tickets for userID at eventID. Rows are inserted one at a
// time so every ticket gets its own LastInsertId.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64, n int) ([]model.Ticket, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tickets (code, event_id, user_id, created_at) VALUES (?,?,?,?)`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare ticket insert")
	}
	defer stmt.Close()

	now := time.Now().UTC().Truncate(time.Second)
	tickets := make([]model.Ticket, 0, n)
	for i := 0; i < n; i++ {
		t := model.Ticket{Code: uuid.NewString(), EventID: eventID, UserID: userID, CreatedAt: now}
		res, err := stmt.ExecContext(ctx, t.Code, eventID, userID, now)
		if err != nil {
			return nil, errors.Wrap(err, "insert ticket")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, errors.Wrap(err, "ticket last insert id")
		}
		t.ID = uint64(id)
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// GetForUser returns the ticket only when userID owns it.
func (r *TicketRepo) GetForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
	return getTicket(ctx, r.DB, ticketID, userID, false)
}

// GetForUserTx is GetForUser inside tx, optionally locking the row.
func (r *TicketRepo) GetForUserTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64, lock bool) (*model.Ticket, error) {
	return getTicket(ctx, tx, ticketID, userID, lock)
}

// ListByUser returns the user's tickets, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, code, event_id, user_id, created_at FROM tickets
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.EventID, &t.UserID, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		tickets = append(tickets, t)
	}
	return tickets, errors.Wrap(rows.Err(), "iterate tickets")
}

// DeleteTx removes a single ticket.
func (r *TicketRepo) DeleteTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, ticketID)
	if err != nil {
		return errors.Wrap(err, "delete ticket")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByEventUserTx removes every ticket userID holds for eventID and
// returns how many were removed.
func (r *TicketRepo) DeleteByEventUserTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) (int, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM tickets WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return 0, errors.Wrap(err, "delete user tickets")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return int(n), nil
}

func getTicket(ctx context.Context, q querier, ticketID, userID uint64, lock bool) (*model.Ticket, error) {
	query := `SELECT id, code, event_id, user_id, created_at FROM tickets WHERE id = ? AND user_id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	var t model.Ticket
	err := q.QueryRowContext(ctx, query, ticketID, userID).
		Scan(&t.ID, &t.Code, &t.EventID, &t.UserID, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get ticket")
	}
	return &t, nil
}
