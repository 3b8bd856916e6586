package ledger

import (
	"strings"

	"finledger/internal/core"
)

// FilterCriteria selects the visible transactions. Empty fields match everything.
type FilterCriteria struct {
	Search string // case-insensitive title substring
	Month  string // YYYY-MM
}

// Filter returns the transactions whose title contains searchText
// (case-insensitively) and whose date falls in month. The result is a new
// slice in input order. Records with an unparsable date never match a month.
func Filter(txs []core.Transaction, searchText, month string) []core.Transaction {
	needle := strings.ToLower(searchText)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if needle != "" && !strings.Contains(strings.ToLower(tx.Title), needle) {
			continue
		}
		if month != "" {
			key, ok := tx.Date.MonthKey()
			if !ok || key != month {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

// Apply filters txs with the criteria.
func (c FilterCriteria) Apply(txs []core.Transaction) []core.Transaction {
	return Filter(txs, c.Search, c.Month)
}
