// Package repository holds the MySQL data access layer. Sentinel errors
// defined here let the service layer tell apart missing rows and
// constraint violations without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write would violate a table constraint,
// such as available_tickets exceeding total_tickets.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers we translate.
const (
	mysqlDuplicateEntry   = 1062
	mysqlCheckViolated    = 3819
	mysqlForeignKeyParent = 1452
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}
