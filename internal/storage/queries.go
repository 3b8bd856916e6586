package storage

import (
	"context"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table. CreatedAt holds unix
// nanoseconds so ordering is numeric.
type Transaction struct {
	ID        string
	UserID    string
	Title     string
	Amount    decimal.Decimal
	Type      string
	Category  string
	Date      string
	CreatedAt int64
}

const createTransaction = `
INSERT INTO transactions (id, user_id, title, amount, type, category, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	ID        string
	UserID    string
	Title     string
	Amount    decimal.Decimal
	Type      string
	Category  string
	Date      string
	CreatedAt int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.Amount.String(),
		arg.Type,
		arg.Category,
		arg.Date,
		arg.CreatedAt,
	)
	return err
}

const listTransactionsByUser = `
SELECT id, user_id, title, amount, type, category, date, created_at
FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Title,
			&i.Amount,
			&i.Type,
			&i.Category,
			&i.Date,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `
UPDATE transactions
SET title = ?, amount = ?, type = ?, category = ?, date = ?
WHERE id = ? AND user_id = ?
`

type UpdateTransactionParams struct {
	Title    string
	Amount   decimal.Decimal
	Type     string
	Category string
	Date     string
	ID       string
	UserID   string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Title,
		arg.Amount.String(),
		arg.Type,
		arg.Category,
		arg.Date,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
