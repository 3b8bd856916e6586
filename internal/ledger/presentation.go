package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
)

// MonthOption is an entry of the month picker.
type MonthOption struct {
	Label string // January
	Value string // 2024-01
}

// Slice is one segment of the income/expense pie chart.
type Slice struct {
	Name   string
	Amount decimal.Decimal
	Share  decimal.Decimal // fraction of the chart total, 4 decimals
}

// CurrentMonth returns the YYYY-MM key of now, the default month filter.
func CurrentMonth(now time.Time) string {
	return now.Format("2006-01")
}

// MonthOptions lists the twelve months of year.
func MonthOptions(year int) []MonthOption {
	out := make([]MonthOption, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthOption{
			Label: m.String(),
			Value: fmt.Sprintf("%04d-%02d", year, int(m)),
		})
	}
	return out
}

// PieSlices splits the summary into income and expense segments.
// With nothing recorded both shares are zero.
func PieSlices(s core.Summary) []Slice {
	total := s.Income.Add(s.Expenses)
	share := func(d decimal.Decimal) decimal.Decimal {
		if total.IsZero() {
			return decimal.Zero
		}
		return d.DivRound(total, 4)
	}
	return []Slice{
		{Name: "Income", Amount: s.Income, Share: share(s.Income)},
		{Name: "Expenses", Amount: s.Expenses, Share: share(s.Expenses)},
	}
}
