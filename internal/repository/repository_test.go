package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sayrikey1/Event-Booking-App/internal/model"
)

func newMock(t *testing.T) (*Inventory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewInventory(db), mock
}

var eventRowColumns = []string{"id", "user_id", "name", "description", "date", "location", "duration",
	"total_tickets", "available_tickets", "ticket_price", "status", "created_at", "updated_at"}

func TestInTxLocksEventAndCommits(t *testing.T) {
	inv, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \? FOR UPDATE`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow(5, 1, "Gig", "", now, "Hall", 90, 10, 4, 12.5, model.EventStatusAllowingBookings, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE events SET available_tickets=? WHERE id=?`)).
		WithArgs(3, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		ev, err := tx.LockEvent(ctx, 5)
		if err != nil {
			return err
		}
		assert.Equal(t, 4, ev.AvailableTickets)
		assert.Equal(t, 12.5, ev.TicketPrice)
		return tx.SetAvailable(ctx, ev.ID, ev.AvailableTickets-1)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	inv, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \? FOR UPDATE`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(eventRowColumns))
	mock.ExpectRollback()

	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		_, err := tx.LockEvent(ctx, 9)
		require.ErrorIs(t, err, ErrNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketsInsertsOneRowPerTicket(t *testing.T) {
	inv, mock := newMock(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO tickets`)
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), 7, 3, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(100, 1))
	prep.ExpectExec().WithArgs(sqlmock.AnyArg(), 7, 3, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectCommit()

	var tickets []model.Ticket
	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		var err error
		tickets, err = tx.CreateTickets(ctx, 7, 3, 2)
		return err
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, uint64(100), tickets[0].ID)
	assert.Equal(t, uint64(101), tickets[1].ID)
	assert.NotEqual(t, tickets[0].Code, tickets[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitingListIsReadInQueueOrder(t *testing.T) {
	inv, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY w.created_at ASC, w.id ASC\s+FOR UPDATE`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "count", "created_at", "email"}).
			AddRow(1, 2, 10, 3, now, "a@example.com").
			AddRow(4, 2, 11, 1, now, "b@example.com"))
	mock.ExpectCommit()

	var entries []model.WaitingListEntry
	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		var err error
		entries, err = tx.WaitingList(ctx, 2)
		return err
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@example.com", entries[0].UserEmail)
	assert.Equal(t, uint64(4), entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueWaitingReturnsStoredTimestamp(t *testing.T) {
	inv, mock := newMock(t)
	stored := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO waiting_list (event_id, user_id, count) VALUES (?,?,?)`)).
		WithArgs(2, 10, 3).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at FROM waiting_list WHERE id=?`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(stored))
	mock.ExpectCommit()

	var entry *model.WaitingListEntry
	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		var err error
		entry, err = tx.EnqueueWaiting(ctx, 2, 10, 3)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), entry.ID)
	assert.Equal(t, 3, entry.Count)
	assert.True(t, stored.Equal(entry.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAvailableMapsCheckViolation(t *testing.T) {
	inv, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events SET available_tickets`).
		WillReturnError(&mysql.MySQLError{Number: mysqlCheckViolated, Message: "check"})
	mock.ExpectRollback()

	err := inv.InTx(context.Background(), func(ctx context.Context, tx InventoryTx) error {
		return tx.SetAvailable(ctx, 1, 99)
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"})

	err = NewUserRepo(db).Create(context.Background(), &model.User{Email: " A@Example.com ", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileOnlyTouchesProvidedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	addr := "1 Main St"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET address = ? WHERE id = ?`)).
		WithArgs(addr, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewUserRepo(db).UpdateProfile(context.Background(), 3, model.UserPatch{Address: &addr}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRejectsRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(1, time.Now().Add(time.Hour), time.Now()))

	_, err = NewTokenRepo(db).ValidateRefresh(context.Background(), "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEventNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM events WHERE id = \?`).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewEventRepo(db).Delete(context.Background(), 4), ErrNotFound)
}
