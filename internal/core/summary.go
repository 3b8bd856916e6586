package core

import "github.com/shopspring/decimal"

// Summary holds the ledger totals.
type Summary struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// Rounded returns the summary rounded to cents for display.
func (s Summary) Rounded() Summary {
	return Summary{
		Income:   s.Income.Round(2),
		Expenses: s.Expenses.Round(2),
		Balance:  s.Balance.Round(2),
	}
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}
