// Package store defines the persistence contract the ledger engine consumes.
package store

import (
	"context"
	"errors"

	"finledger/internal/core"
)

// ErrNotFound is returned when an id does not match a stored transaction
// owned by the caller.
var ErrNotFound = errors.New("transaction not found")

// Ports for outbound adapters.
type (
	TransactionLister interface {
		// ListTransactions returns the user's transactions, newest CreatedAt first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	TransactionCreator interface {
		// CreateTransaction stores a new record and returns its id. CreatedAt
		// is assigned by the store.
		CreateTransaction(ctx context.Context, data core.TransactionData) (id string, err error)
	}

	TransactionUpdater interface {
		// UpdateTransaction replaces every writable field of the record owned
		// by data.UserID.
		UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Store is the full transaction backend.
	Store interface {
		TransactionLister
		TransactionCreator
		TransactionUpdater
		TransactionDeleter
	}
)
