package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"finledger/internal/core"
	"finledger/internal/ledger"
)

// monthFilter resolves the --month/--all pair: the current month unless
// --all or an explicit month is given.
func monthFilter(rt *Runtime, month string, all bool) string {
	switch {
	case all:
		return ""
	case month != "":
		return month
	default:
		return ledger.CurrentMonth(rt.now())
	}
}

type ListCmd struct {
	Search string `help:"Case-insensitive title substring."`
	Month  string `help:"Month as YYYY-MM (defaults to the current month)."`
	All    bool   `help:"Ignore the month filter."`
}

func (cmd *ListCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	return rt.withEngine(globals.User, func(_ context.Context, e *ledger.Engine) error {
		criteria := ledger.FilterCriteria{Search: cmd.Search, Month: monthFilter(rt, cmd.Month, cmd.All)}
		view := e.DeriveView(criteria)
		renderTransactions(ctx.Stdout, view.Visible)
		_, _ = fmt.Fprintln(ctx.Stdout)
		renderSummary(ctx.Stdout, ledger.Aggregate(view.Visible))
		return nil
	})
}

type SummaryCmd struct {
	Month string `help:"Month as YYYY-MM (defaults to the current month)."`
	All   bool   `help:"Ignore the month filter."`
}

func (cmd *SummaryCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	return rt.withEngine(globals.User, func(_ context.Context, e *ledger.Engine) error {
		month := monthFilter(rt, cmd.Month, cmd.All)
		view := e.DeriveView(ledger.FilterCriteria{Month: month})
		// Totals follow the rows shown; the view summary covers every month.
		shown := ledger.Aggregate(view.Visible)
		if month != "" {
			printInfof(ctx.Stdout, "Month %s, %d transaction(s)", month, len(view.Visible))
		} else {
			printInfof(ctx.Stdout, "All months, %d transaction(s)", len(view.Visible))
		}
		renderSummary(ctx.Stdout, shown)
		_, _ = fmt.Fprintln(ctx.Stdout)
		renderSlices(ctx.Stdout, ledger.PieSlices(shown))
		if month != "" {
			_, _ = fmt.Fprintln(ctx.Stdout)
			_, _ = fmt.Fprintln(ctx.Stdout, headerStyle.Render("All time"))
			renderSummary(ctx.Stdout, view.Summary)
		}
		renderCategories(ctx.Stdout, "Income by category", ledger.ByCategory(view.Visible, core.Income))
		renderCategories(ctx.Stdout, "Expenses by category", ledger.ByCategory(view.Visible, core.Expense))
		return nil
	})
}

type MonthsCmd struct {
	Year int `help:"Year to list (defaults to the current year)."`
}

func (cmd *MonthsCmd) Run(ctx *kong.Context, rt *Runtime) error {
	year := cmd.Year
	if year == 0 {
		year = rt.now().Year()
	}
	for _, m := range ledger.MonthOptions(year) {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %s\n", m.Value, m.Label)
	}
	return nil
}
