package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"finledger/internal/core"
	"finledger/internal/ledger"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

func amountStyle(t core.TxType) lipgloss.Style {
	if t == core.Expense {
		return errorStyle
	}
	return successStyle
}

func renderTransactions(w io.Writer, txs []core.Transaction) {
	if len(txs) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No transactions"))
		return
	}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Date.String(),
			tx.Title,
			tx.Category,
			tx.Type.String(),
			core.FormatAmount(tx.Amount),
			tx.ID,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "Title", "Category", "Type", "Amount", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 && row >= 0 && row < len(txs) {
				return amountStyle(txs[row].Type)
			}
			return lipgloss.NewStyle()
		})
	_, _ = fmt.Fprintln(w, t.String())
}

func renderSummary(w io.Writer, s core.Summary) {
	s = s.Rounded()
	lines := []string{
		fmt.Sprintf("%-9s %s", "Income", successStyle.Render(core.FormatAmount(s.Income))),
		fmt.Sprintf("%-9s %s", "Expenses", errorStyle.Render(core.FormatAmount(s.Expenses))),
		fmt.Sprintf("%-9s %s", "Balance", headerStyle.Render(core.FormatAmount(s.Balance))),
	}
	_, _ = fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func renderSlices(w io.Writer, slices []ledger.Slice) {
	for _, sl := range slices {
		pct := sl.Share.Shift(2).StringFixed(1)
		_, _ = fmt.Fprintf(w, "%-9s %6s%%  %s\n", sl.Name, pct, mutedStyle.Render(core.FormatAmount(sl.Amount)))
	}
}

func renderCategories(w io.Writer, title string, cats []core.CategoryAmount) {
	if len(cats) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render(title))
	for _, c := range cats {
		_, _ = fmt.Fprintf(w, "  %-20s %s\n", c.Name, core.FormatAmount(c.Amount))
	}
}

// ReportError prints err in the error style.
func ReportError(w io.Writer, err error) {
	printError(w, err.Error())
}
