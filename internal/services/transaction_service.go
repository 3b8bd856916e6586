package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/log"
	"finledger/internal/store"
)

// TransactionService writes through to a store and announces each
// successful write. Publishing is best effort: the write has already
// happened, so a failed publish is logged and never returned.
type TransactionService struct {
	store     store.Store
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

var _ store.Store = (*TransactionService)(nil)

func NewTransactionService(s store.Store, publisher events.Publisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Nop()
	}
	return &TransactionService{
		store:     s,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentEvents),
		now:       time.Now,
	}
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// CreateTransaction saves the record first, then publishes a created event.
func (s *TransactionService) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	id, err := s.store.CreateTransaction(ctx, data)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, events.Created, id, data.UserID)
	return id, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	if err := s.store.UpdateTransaction(ctx, id, data); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, events.Updated, id, data.UserID)
	return nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, events.Deleted, id, "")
	return nil
}

func (s *TransactionService) publish(ctx context.Context, kind events.Kind, id, userID string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Event publisher not available, skipping event",
			log.FieldEventKind, kind)
		return
	}
	ev := events.TransactionEvent{
		Kind:          kind,
		TransactionID: id,
		UserID:        userID,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpPublish).
			WithUser(userID).
			WithError(err).
			WithErrorType(log.ErrorTypeNetwork)
		fields[log.FieldEventKind] = string(kind)
		fields[log.FieldTransactionID] = id
		s.logger.ErrorContext(ctx, "Failed to publish transaction event", fields.ToSlice()...)
	}
}

// Close closes the publisher and, when it holds resources, the store.
func (s *TransactionService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
