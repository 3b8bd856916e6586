package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"finledger/internal/backend"
	"finledger/internal/core"
	"finledger/internal/events"
	"finledger/internal/ledger"
	"finledger/internal/store/memory"
)

type staticOpener struct {
	store  *memory.Store
	events []events.TransactionEvent
}

func (o *staticOpener) Open(context.Context) (*backend.Result, error) {
	return &backend.Result{Store: o.store}, nil
}

func (o *staticOpener) Subscribe(context.Context) (events.Subscriber, error) {
	return &replaySubscriber{events: o.events}, nil
}

type replaySubscriber struct {
	events []events.TransactionEvent
}

func (r *replaySubscriber) Subscribe(_ context.Context, handler func(events.TransactionEvent) error) error {
	for _, ev := range r.events {
		if err := handler(ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *replaySubscriber) Close() error { return nil }

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestRuntime() (*Runtime, *staticOpener) {
	opener := &staticOpener{store: memory.New()}
	return &Runtime{Opener: opener, Timeout: time.Second, Now: func() time.Time { return fixedNow }}, opener
}

func run(t *testing.T, rt *Runtime, args ...string) (string, error) {
	t.Helper()
	var cmds Commands
	var out bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Name("finledger"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
		kong.Bind(&cmds.Globals, rt),
	)
	assert.NoError(t, err)
	ctx, err := parser.Parse(args)
	assert.NoError(t, err)
	err = ctx.Run()
	return out.String(), err
}

func seed(t *testing.T, s *memory.Store, user, title string, amount int64, typ core.TxType, date core.Date) string {
	t.Helper()
	id, err := s.CreateTransaction(context.Background(), core.TransactionData{
		UserID:   user,
		Title:    title,
		Amount:   decimal.NewFromInt(amount),
		Type:     typ,
		Category: "General",
		Date:     date,
	})
	assert.NoError(t, err)
	return id
}

func TestAddThenList(t *testing.T) {
	rt, opener := newTestRuntime()

	out, err := run(t, rt, "--user", "alice", "add", "--title", "Salary", "--amount", "1500,50", "--category", "Job")
	assert.NoError(t, err)
	assert.Contains(t, out, `Saved "Salary"`)

	txs, err := opener.store.ListTransactions(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txs))
	assert.Equal(t, "2024-03-15", txs[0].Date.String())
	assert.Equal(t, core.Income, txs[0].Type)

	out, err = run(t, rt, "--user", "alice", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "1500.50")
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	rt, opener := newTestRuntime()

	_, err := run(t, rt, "--user", "alice", "add", "--title", "Lunch", "--amount", "abc", "--category", "Food", "--type", "expense")
	var verr *ledger.ValidationError
	assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Equal(t, "amount", verr.Field)

	txs, _ := opener.store.ListTransactions(context.Background(), "alice")
	assert.Equal(t, 0, len(txs))
}

func TestListFiltersByMonthAndSearch(t *testing.T) {
	rt, opener := newTestRuntime()
	seed(t, opener.store, "alice", "Groceries", 40, core.Expense, core.NewDate(2024, 3, 2))
	seed(t, opener.store, "alice", "Rent", 700, core.Expense, core.NewDate(2024, 2, 1))
	seed(t, opener.store, "bob", "Bob groceries", 10, core.Expense, core.NewDate(2024, 3, 3))

	out, err := run(t, rt, "--user", "alice", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "Rent")
	assert.NotContains(t, out, "Bob groceries")

	out, err = run(t, rt, "--user", "alice", "list", "--all", "--search", "RENT")
	assert.NoError(t, err)
	assert.Contains(t, out, "Rent")
	assert.NotContains(t, out, "Groceries")

	out, err = run(t, rt, "--user", "alice", "list", "--month", "2023-01")
	assert.NoError(t, err)
	assert.Contains(t, out, "No transactions")
}

func TestEditChangesOnlyGivenFields(t *testing.T) {
	rt, opener := newTestRuntime()
	id := seed(t, opener.store, "alice", "Coffee", 3, core.Expense, core.NewDate(2024, 3, 1))

	out, err := run(t, rt, "--user", "alice", "edit", id, "--amount", "4.5")
	assert.NoError(t, err)
	assert.Contains(t, out, "Updated "+id)

	txs, _ := opener.store.ListTransactions(context.Background(), "alice")
	assert.Equal(t, 1, len(txs))
	assert.Equal(t, "Coffee", txs[0].Title)
	assert.Equal(t, "4.50", core.FormatAmount(txs[0].Amount))
	assert.Equal(t, core.Expense, txs[0].Type)
}

func TestEditUnknownID(t *testing.T) {
	rt, _ := newTestRuntime()
	_, err := run(t, rt, "--user", "alice", "edit", "missing", "--title", "x")
	var nf *ledger.NotFoundError
	assert.True(t, errors.As(err, &nf), "expected not found, got %v", err)
}

func TestDeleteRemovesOnlyOwnTransaction(t *testing.T) {
	rt, opener := newTestRuntime()
	id := seed(t, opener.store, "alice", "Coffee", 3, core.Expense, core.NewDate(2024, 3, 1))

	_, err := run(t, rt, "--user", "bob", "delete", id)
	assert.Error(t, err)

	out, err := run(t, rt, "--user", "alice", "delete", id)
	assert.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	txs, _ := opener.store.ListTransactions(context.Background(), "alice")
	assert.Equal(t, 0, len(txs))
}

func TestSummaryShowsTotalsAndCategories(t *testing.T) {
	rt, opener := newTestRuntime()
	seed(t, opener.store, "alice", "Salary", 300, core.Income, core.NewDate(2024, 3, 1))
	seed(t, opener.store, "alice", "Food", 100, core.Expense, core.NewDate(2024, 3, 5))
	seed(t, opener.store, "alice", "Old", 999, core.Expense, core.NewDate(2023, 3, 5))

	out, err := run(t, rt, "--user", "alice", "summary")
	assert.NoError(t, err)
	month, allTime, found := strings.Cut(out, "All time")
	assert.True(t, found, "missing all-time section in %q", out)

	assert.Contains(t, month, "Month 2024-03, 2 transaction(s)")
	assert.Contains(t, month, "300.00")
	assert.Contains(t, month, "100.00")
	assert.Contains(t, month, "200.00")
	assert.Contains(t, month, "75.0%")
	assert.Contains(t, month, "25.0%")
	assert.Contains(t, month, "Expenses by category")
	assert.NotContains(t, month, "1099.00")

	assert.Contains(t, allTime, "1099.00")
	assert.Contains(t, allTime, "-799.00")
}

func TestSummaryAllMonthsHasNoSeparateTotals(t *testing.T) {
	rt, opener := newTestRuntime()
	seed(t, opener.store, "alice", "Salary", 300, core.Income, core.NewDate(2024, 3, 1))
	seed(t, opener.store, "alice", "Old", 100, core.Expense, core.NewDate(2023, 3, 5))

	out, err := run(t, rt, "--user", "alice", "summary", "--all")
	assert.NoError(t, err)
	assert.Contains(t, out, "All months, 2 transaction(s)")
	assert.Contains(t, out, "200.00")
	assert.NotContains(t, out, "All time")
}

func TestListTotalsFollowVisibleRows(t *testing.T) {
	rt, opener := newTestRuntime()
	seed(t, opener.store, "alice", "Groceries", 40, core.Expense, core.NewDate(2024, 3, 2))
	seed(t, opener.store, "alice", "Rent", 700, core.Expense, core.NewDate(2024, 2, 1))

	out, err := run(t, rt, "--user", "alice", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "-40.00")
	assert.NotContains(t, out, "740.00")
}

func TestMonthsListsYear(t *testing.T) {
	rt, _ := newTestRuntime()
	out, err := run(t, rt, "--user", "alice", "months", "--year", "2023")
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, 12, len(lines))
	assert.Equal(t, "2023-01  January", lines[0])
	assert.Equal(t, "2023-12  December", lines[11])
}

func TestWatchFiltersOtherUsers(t *testing.T) {
	rt, opener := newTestRuntime()
	opener.events = []events.TransactionEvent{
		{Kind: events.Created, TransactionID: "tx-1", UserID: "alice", OccurredAt: fixedNow},
		{Kind: events.Created, TransactionID: "tx-2", UserID: "bob", OccurredAt: fixedNow},
		{Kind: events.Deleted, TransactionID: "tx-3", OccurredAt: fixedNow},
	}

	out, err := run(t, rt, "--user", "alice", "watch")
	assert.NoError(t, err)
	assert.Contains(t, out, "tx-1")
	assert.NotContains(t, out, "tx-2")
	assert.Contains(t, out, "tx-3")
}
