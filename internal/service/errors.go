package service

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/Sayrikey1/Event-Booking-App/internal/repository"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// Error is a failure the caller is expected to see. Message is safe to show
// to clients; Kind is one of the Err* values above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// notFoundOr converts repository.ErrNotFound to a user-facing not-found
// error and wraps anything else as internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "%s", msg)
	}
	return errors.Wrap(err, msg)
}
