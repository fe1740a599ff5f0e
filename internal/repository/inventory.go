package repository

import (
	"context"
	"database/sql"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
	"github.com/cockroachdb/errors"
)

// InventoryTx is the set of reads and writes a booking transaction may
// perform. Implementations run every call on one database transaction.
type InventoryTx interface {
	GetUser(ctx context.Context, userID uint64) (*model.User, error)

	// LockEvent takes the exclusive row lock on the event. Callers lock the
	// event before touching its tickets or waiting list.
	LockEvent(ctx context.Context, eventID uint64) (*model.Event, error)
	UpdateEvent(ctx context.Context, ev *model.Event) error
	SetAvailable(ctx context.Context, eventID uint64, available int) error

	CreateTickets(ctx context.Context, eventID, userID uint64, n int) ([]model.Ticket, error)
	GetTicket(ctx context.Context, ticketID, userID uint64, lock bool) (*model.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID uint64) error
	DeleteUserTickets(ctx context.Context, eventID, userID uint64) (int, error)

	EnqueueWaiting(ctx context.Context, eventID, userID uint64, count int) (*model.WaitingListEntry, error)
	WaitingList(ctx context.Context, eventID uint64) ([]model.WaitingListEntry, error)
	GetWaiting(ctx context.Context, id, userID uint64) (*model.WaitingListEntry, error)
	DeleteWaiting(ctx context.Context, id uint64) error
	SetWaitingCount(ctx context.Context, id uint64, count int) error
}

// Inventory runs booking transactions against MySQL.
type Inventory struct {
	db      *sql.DB
	users   *UserRepo
	events  *EventRepo
	tickets *TicketRepo
	waiting *WaitingListRepo
}

func NewInventory(db *sql.DB) *Inventory {
	return &Inventory{
		db:      db,
		users:   NewUserRepo(db),
		events:  NewEventRepo(db),
		tickets: NewTicketRepo(db),
		waiting: NewWaitingListRepo(db),
	}
}

// InTx runs fn inside a READ COMMITTED transaction and commits when fn
// returns nil. Any error or panic rolls everything back.
//
// READ COMMITTED makes plain reads issued after LockEvent see rows committed
// by the transaction that held the lock before us; under REPEATABLE READ
// they would see the snapshot taken by the first read.
func (s *Inventory) InTx(ctx context.Context, fn func(ctx context.Context, tx InventoryTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &inventoryTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	committed = true
	return nil
}

// TicketForUser, TicketsByUser and WaitingByUser are the lock-free reads
// used by the booking queries.
func (s *Inventory) TicketForUser(ctx context.Context, ticketID, userID uint64) (*model.Ticket, error) {
	return s.tickets.GetForUser(ctx, ticketID, userID)
}

func (s *Inventory) TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

func (s *Inventory) WaitingByUser(ctx context.Context, userID uint64) ([]model.WaitingListEntry, error) {
	return s.waiting.ListByUser(ctx, userID)
}

type inventoryTx struct {
	tx *sql.Tx
	s  *Inventory
}

func (t *inventoryTx) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	return t.s.users.GetByIDTx(ctx, t.tx, userID)
}

func (t *inventoryTx) LockEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	return t.s.events.LockTx(ctx, t.tx, eventID)
}

func (t *inventoryTx) UpdateEvent(ctx context.Context, ev *model.Event) error {
	return t.s.events.UpdateTx(ctx, t.tx, ev)
}

func (t *inventoryTx) SetAvailable(ctx context.Context, eventID uint64, available int) error {
	return t.s.events.SetAvailableTx(ctx, t.tx, eventID, available)
}

func (t *inventoryTx) CreateTickets(ctx context.Context, eventID, userID uint64, n int) ([]model.Ticket, error) {
	return t.s.tickets.CreateTx(ctx, t.tx, eventID, userID, n)
}

func (t *inventoryTx) GetTicket(ctx context.Context, ticketID, userID uint64, lock bool) (*model.Ticket, error) {
	return t.s.tickets.GetForUserTx(ctx, t.tx, ticketID, userID, lock)
}

func (t *inventoryTx) DeleteTicket(ctx context.Context, ticketID uint64) error {
	return t.s.tickets.DeleteTx(ctx, t.tx, ticketID)
}

func (t *inventoryTx) DeleteUserTickets(ctx context.Context, eventID, userID uint64) (int, error) {
	return t.s.tickets.DeleteByEventUserTx(ctx, t.tx, eventID, userID)
}

func (t *inventoryTx) EnqueueWaiting(ctx context.Context, eventID, userID uint64, count int) (*model.WaitingListEntry, error) {
	return t.s.waiting.CreateTx(ctx, t.tx, eventID, userID, count)
}

func (t *inventoryTx) WaitingList(ctx context.Context, eventID uint64) ([]model.WaitingListEntry, error) {
	return t.s.waiting.ListByEventTx(ctx, t.tx, eventID)
}

func (t *inventoryTx) GetWaiting(ctx context.Context, id, userID uint64) (*model.WaitingListEntry, error) {
	return t.s.waiting.GetForUserTx(ctx, t.tx, id, userID)
}

func (t *inventoryTx) DeleteWaiting(ctx context.Context, id uint64) error {
	return t.s.waiting.DeleteTx(ctx, t.tx, id)
}

func (t *inventoryTx) SetWaitingCount(ctx context.Context, id uint64, count int) error {
	return t.s.waiting.UpdateCountTx(ctx, t.tx, id, count)
}
