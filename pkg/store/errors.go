// Package store implements the Persistence Store: the only surface the
// rest of the core uses to read and write Tasks, Runs, Steps, and their
// dependent records.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUnavailable is returned when the store's connection pool has not
	// been initialized (or has been closed).
	ErrUnavailable = errors.New("persistence store unavailable")

	// ErrConflict is returned when a create call collides with an
	// existing unique value, e.g. a duplicate external-id.
	ErrConflict = errors.New("entity already exists")

	// ErrMissingReference is returned when a required foreign key is
	// null — in particular by CreatePullRequest, which refuses to write
	// a PR row without both a task-id and a run-id.
	ErrMissingReference = errors.New("missing required reference")

	// ErrTransientIO marks an operation-in-progress or deadlock failure
	// that callers should retry with backoff; see Retry in retry.go.
	ErrTransientIO = errors.New("transient persistence error")

	// ErrNotFound is returned when a lookup finds no matching row.
	ErrNotFound = errors.New("entity not found")
)

// ValidationError wraps a field-specific input validation failure raised
// before any database call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// classifyConstraintError distinguishes a foreign-key violation (a
// reference to a row that does not exist) from a unique-constraint
// violation (a duplicate create), since ent's generic IsConstraintError
// collapses both into one boolean. Falls back to ErrConflict when the
// underlying pg error code can't be read, which is the safer default
// for a true duplicate-key race.
func classifyConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return ErrMissingReference
		case "23505": // unique_violation
			return ErrConflict
		}
	}
	return ErrConflict
}
