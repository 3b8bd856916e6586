package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/store/memory"
)

// fakeStore wraps the memory store with call counting and failure injection.
type fakeStore struct {
	*memory.Store

	mu         sync.Mutex
	calls      map[string]int
	failList   error
	failCreate error
	failUpdate error
	failDelete error
	extra      []core.Transaction
	listHook   func(ctx context.Context, call int) error
	writeHook  func(ctx context.Context) error
}

func newFakeStore() *fakeStore {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return &fakeStore{
		Store: memory.New().WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}),
		calls: map[string]int{},
	}
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.calls[op]
}

func (f *fakeStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	n := f.count("list")
	f.mu.Lock()
	hook, failErr, extra := f.listHook, f.failList, f.extra
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, n); err != nil {
			return nil, err
		}
	}
	if failErr != nil {
		return nil, failErr
	}
	txs, err := f.Store.ListTransactions(ctx, userID)
	return append(txs, extra...), err
}

func (f *fakeStore) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	f.count("create")
	if err := f.beforeWrite(ctx); err != nil {
		return "", err
	}
	if f.failCreate != nil {
		return "", f.failCreate
	}
	return f.Store.CreateTransaction(ctx, data)
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	f.count("update")
	if f.failUpdate != nil {
		return f.failUpdate
	}
	return f.Store.UpdateTransaction(ctx, id, data)
}

func (f *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	f.count("delete")
	if err := f.beforeWrite(ctx); err != nil {
		return err
	}
	if f.failDelete != nil {
		return f.failDelete
	}
	return f.Store.DeleteTransaction(ctx, id)
}

func (f *fakeStore) beforeWrite(ctx context.Context) error {
	f.mu.Lock()
	hook := f.writeHook
	f.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(ctx)
}

// seed writes directly to the wrapped store without counting.
func (f *fakeStore) seed(userID, title, amount string, typ core.TxType, date core.Date) string {
	id, err := f.Store.CreateTransaction(context.Background(), core.TransactionData{
		UserID:   userID,
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
		Category: "General",
		Date:     date,
	})
	if err != nil {
		panic(err)
	}
	return id
}

func tx(title, amount string, typ core.TxType, date core.Date) core.Transaction {
	return core.Transaction{
		ID:       title,
		UserID:   "u1",
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
		Category: "General",
		Date:     date,
	}
}
