package store

import (
	"context"
	"slices"

	"finledger/internal/cache"
	"finledger/internal/core"
)

// Cached keeps per-user listings in an LRU cache in front of another Store.
// Writes invalidate the affected user; deletes only know the id and purge
// every listing.
type Cached struct {
	next  Store
	lists cache.Cache[[]core.Transaction]
}

var _ Store = (*Cached)(nil)

func NewCached(next Store, lists cache.Cache[[]core.Transaction]) *Cached {
	return &Cached{next: next, lists: lists}
}

func (c *Cached) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if txs, ok := c.lists.Get(userID); ok {
		return slices.Clone(txs), nil
	}
	txs, err := c.next.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.lists.Set(userID, slices.Clone(txs))
	return txs, nil
}

func (c *Cached) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	id, err := c.next.CreateTransaction(ctx, data)
	c.lists.Delete(data.UserID)
	return id, err
}

func (c *Cached) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	err := c.next.UpdateTransaction(ctx, id, data)
	c.lists.Delete(data.UserID)
	return err
}

func (c *Cached) DeleteTransaction(ctx context.Context, id string) error {
	err := c.next.DeleteTransaction(ctx, id)
	c.lists.Purge()
	return err
}
