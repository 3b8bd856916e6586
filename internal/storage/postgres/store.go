// Package postgres stores transactions in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"finledger/internal/core"
	"finledger/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrEmptyDSN = errors.New("postgres dsn is empty")

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects, pings and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	const query = `SELECT id, user_id, title, amount, type, category, date, created_at
	FROM transactions WHERE user_id = $1
	ORDER BY created_at DESC, seq DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx        core.Transaction
			typ, date string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Title, &tx.Amount, &typ, &tx.Category, &date, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TxType(typ)
		tx.Date = core.Date(date)
		tx.CreatedAt = tx.CreatedAt.UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *Store) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	const query = `INSERT INTO transactions (id, user_id, title, amount, type, category, date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, query,
		id, data.UserID, data.Title, data.Amount, data.Type.String(), data.Category, data.Date.String(), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres", "id", id, "user_id", data.UserID)
	return id, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	const query = `UPDATE transactions
	SET title = $1, amount = $2, type = $3, category = $4, date = $5
	WHERE id = $6 AND user_id = $7`

	res, err := s.db.ExecContext(ctx, query,
		data.Title, data.Amount, data.Type.String(), data.Category, data.Date.String(), id, data.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	return affectedOne(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
