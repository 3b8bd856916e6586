package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSelectionMismatch is returned by Delete when the id is not the
	// transaction currently selected for editing.
	ErrSelectionMismatch = errors.New("transaction is not selected for editing")

	// ErrNotSignedIn is returned when an operation needs a loaded user.
	ErrNotSignedIn = errors.New("no user loaded")

	// ErrLoadSuperseded is wrapped by a LoadError when a newer load started
	// before this one finished.
	ErrLoadSuperseded = errors.New("load superseded by a newer load")
)

// ValidationError is returned when a draft is missing or has a malformed field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when the id is not in the loaded ledger.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %q not found", e.ID)
}

// LoadError is returned when the store could not list the user's transactions.
type LoadError struct {
	UserID string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load transactions for user %q: %v", e.UserID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when a create, update or delete failed in the store.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s transaction: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s transaction %q: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
