package backend

import (
	"context"

	"finledger/internal/events"
	"finledger/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the assembled store and the function releasing every
// resource behind it.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store stack based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)

	// CreateSubscriber connects to the configured event stream
	CreateSubscriber(ctx context.Context, config Config) (events.Subscriber, error)
}
