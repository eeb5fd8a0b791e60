package sessions

import (
	"errors"
	"fmt"

	"github.com/justestif/skate-sessions/internal/db"
)

// Error taxonomy for session operations.
var (
	// ErrInvalidInput is returned for unparseable identifiers, numbers or dates.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated is returned when no user was resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned when the session, entry or trick does not exist
	// or belongs to another user.
	ErrNotFound = db.ErrNotFound
)

// BackendError reports a failure of the storage call itself.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// backend classifies a store error: not-found passes through, anything else
// becomes a BackendError.
func backend(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &BackendError{Op: op, Err: err}
}

func invalid(field, raw string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidInput, field, raw)
}
