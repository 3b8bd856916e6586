package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
)

// Column order of the transactions sheet, A through H.
var header = []any{"ID", "UserID", "Title", "Amount", "Type", "Category", "Date", "CreatedAt"}

const (
	colID = iota
	colUserID
	colTitle
	colAmount
	colType
	colCategory
	colDate
	colCreatedAt
	numCols
)

func formatRow(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.UserID,
		tx.Title,
		tx.Amount.String(),
		tx.Type.String(),
		tx.Category,
		tx.Date.String(),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// parseRow decodes a sheet row. Cleared rows and rows whose id, owner,
// amount or timestamp cannot be read report ok=false.
func parseRow(row []any) (core.Transaction, bool) {
	cols := toStrings(row)
	id := safeGet(cols, colID)
	user := safeGet(cols, colUserID)
	if id == "" || user == "" {
		return core.Transaction{}, false
	}
	amount, err := decimal.NewFromString(safeGet(cols, colAmount))
	if err != nil {
		return core.Transaction{}, false
	}
	created, err := time.Parse(time.RFC3339Nano, safeGet(cols, colCreatedAt))
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:        id,
		UserID:    user,
		Title:     safeGet(cols, colTitle),
		Amount:    amount,
		Type:      core.TxType(strings.ToLower(safeGet(cols, colType))),
		Category:  safeGet(cols, colCategory),
		Date:      core.Date(safeGet(cols, colDate)),
		CreatedAt: created.UTC(),
	}, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(cols []string, i int) string {
	if i < 0 || i >= len(cols) {
		return ""
	}
	return cols[i]
}

// rowRange addresses columns A:H of a 1-based sheet row.
func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}
