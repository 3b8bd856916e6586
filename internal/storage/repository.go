package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finledger/internal/core"
	"finledger/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite store ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListTransactions implements store.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

// CreateTransaction implements store.TransactionCreator
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:        id,
		UserID:    data.UserID,
		Title:     data.Title,
		Amount:    data.Amount,
		Type:      data.Type.String(),
		Category:  data.Category,
		Date:      data.Date.String(),
		CreatedAt: r.now().UTC().UnixNano(),
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", data.UserID,
		"amount", data.Amount.String(),
		"type", data.Type.String())

	return id, nil
}

// UpdateTransaction implements store.TransactionUpdater
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Title:    data.Title,
		Amount:   data.Amount,
		Type:     data.Type.String(),
		Category: data.Category,
		Date:     data.Date.String(),
		ID:       id,
		UserID:   data.UserID,
	})
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", id)
	return nil
}

// DeleteTransaction implements store.TransactionDeleter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

func (t Transaction) toCore() core.Transaction {
	return core.Transaction{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Amount:    t.Amount,
		Type:      core.TxType(t.Type),
		Category:  t.Category,
		Date:      core.Date(t.Date),
		CreatedAt: time.Unix(0, t.CreatedAt).UTC(),
	}
}
