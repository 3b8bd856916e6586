package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/store"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("expected ErrEmptyDSN, got %v", err)
	}
}

// Runs only against a disposable database named by FINLEDGER_TEST_POSTGRES_DSN.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("FINLEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINLEDGER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	user := "pg-test-" + t.Name()
	data := core.TransactionData{
		UserID:   user,
		Title:    "Deposit",
		Amount:   decimal.RequireFromString("99.95"),
		Type:     core.Income,
		Category: "Bank",
		Date:     core.NewDate(2024, 8, 1),
	}
	id, err := s.CreateTransaction(ctx, data)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteTransaction(context.Background(), id) })

	txs, err := s.ListTransactions(ctx, user)
	if err != nil || len(txs) != 1 {
		t.Fatalf("list: %v %v", txs, err)
	}
	if !txs[0].Amount.Equal(data.Amount) {
		t.Errorf("amount = %s", txs[0].Amount)
	}

	data.UserID = "someone-else"
	if err := s.UpdateTransaction(ctx, id, data); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign update, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "not-a-uuid"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for malformed id, got %v", err)
	}
}
