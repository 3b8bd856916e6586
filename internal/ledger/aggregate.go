package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
)

// Aggregate sums income and expenses over txs. Records with an unknown type
// are skipped. Sums are exact; round with Summary.Rounded for display.
func Aggregate(txs []core.Transaction) core.Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return core.Summary{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
	}
}

// ByCategory totals the amounts of one transaction type per category,
// largest first. Ties are ordered by name.
func ByCategory(txs []core.Transaction, typ core.TxType) []core.CategoryAmount {
	totals := map[string]decimal.Decimal{}
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
