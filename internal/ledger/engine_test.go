package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/log"
)

var fixedNow = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, fs *fakeStore) *Engine {
	t.Helper()
	return NewEngine(fs, WithClock(func() time.Time { return fixedNow }))
}

func loadedEngine(t *testing.T, fs *fakeStore, userID string) *Engine {
	t.Helper()
	e := newTestEngine(t, fs)
	assert.NoError(t, e.Load(context.Background(), userID))
	return e
}

func TestEngineLoad(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "older", "10", core.Income, "2024-01-01")
	fs.seed("u1", "newer", "5", core.Expense, "2024-01-02")
	fs.seed("u2", "foreign", "99", core.Income, "2024-01-02")

	e := loadedEngine(t, fs, "u1")
	assert.Equal(t, "u1", e.UserID())
	assert.Equal(t, []string{"newer", "older"}, titles(e.Transactions()))
}

func TestEngineLoadFailureKeepsState(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "kept", "10", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")

	boom := errors.New("backend down")
	fs.failList = boom
	err := e.Load(context.Background(), "u1")

	var lerr *LoadError
	assert.True(t, errors.As(err, &lerr))
	assert.Equal(t, "u1", lerr.UserID)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"kept"}, titles(e.Transactions()))
}

func TestEngineDropsForeignTransactions(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "mine", "10", core.Income, "2024-01-01")
	leaked := tx("leaked", "1000", core.Income, "2024-01-01")
	leaked.UserID = "u2"
	fs.extra = []core.Transaction{leaked}

	e := loadedEngine(t, fs, "u1")
	assert.Equal(t, []string{"mine"}, titles(e.Transactions()))
	assert.Equal(t, "10", e.DeriveView(FilterCriteria{}).Summary.Income.String())
}

func TestEngineSaveCreatesAndReloads(t *testing.T) {
	fs := newFakeStore()
	e := loadedEngine(t, fs, "u1")

	err := e.Save(context.Background(), Draft{Title: "Salary", Amount: "1000", Type: "income", Category: "Work", Date: "2024-01-05"})
	assert.NoError(t, err)
	err = e.Save(context.Background(), Draft{Title: "Rent", Amount: "250", Type: "expense", Category: "Housing", Date: "2024-01-06"})
	assert.NoError(t, err)

	assert.Equal(t, 2, fs.Calls("create"))
	assert.Equal(t, 3, fs.Calls("list"))

	view := e.DeriveView(FilterCriteria{Month: "2024-01"})
	assert.Equal(t, []string{"Rent", "Salary"}, titles(view.Visible))
	assert.Equal(t, "750", view.Summary.Balance.String())
	assert.Equal(t, NewDraft(fixedNow), e.Draft())
}

func TestEngineSaveMissingTitle(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "existing", "10", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	before := e.Transactions()

	draft := Draft{Amount: "5", Type: "expense", Category: "Food", Date: "2024-01-02"}
	err := e.Save(context.Background(), draft)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
	assert.Equal(t, 0, fs.Calls("create"))
	assert.Equal(t, 0, fs.Calls("update"))
	assert.Equal(t, before, e.Transactions())
	assert.Equal(t, draft, e.Draft())
}

func TestEngineSaveWithoutUser(t *testing.T) {
	fs := newFakeStore()
	e := newTestEngine(t, fs)
	err := e.Save(context.Background(), Draft{Title: "t", Amount: "1", Type: "income", Category: "c", Date: "2024-01-01"})
	assert.IsError(t, err, ErrNotSignedIn)
	assert.Equal(t, 0, fs.Calls("create"))
}

func TestEngineEditAndUpdate(t *testing.T) {
	fs := newFakeStore()
	id := fs.seed("u1", "Coffee", "3.5", core.Expense, "2024-01-03")
	e := loadedEngine(t, fs, "u1")

	assert.NoError(t, e.SelectForEdit(id))
	editing, ok := e.Editing()
	assert.True(t, ok)
	assert.Equal(t, id, editing)

	d := e.Draft()
	assert.Equal(t, "Coffee", d.Title)
	d.Title = "Espresso"
	d.Amount = "2.80"
	assert.NoError(t, e.Save(context.Background(), d))

	assert.Equal(t, 1, fs.Calls("update"))
	assert.Equal(t, 0, fs.Calls("create"))
	_, ok = e.Editing()
	assert.False(t, ok)

	txs := e.Transactions()
	assert.Equal(t, 1, len(txs))
	assert.Equal(t, id, txs[0].ID)
	assert.Equal(t, "Espresso", txs[0].Title)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("2.8")))
}

func TestEngineSavePersistenceFailureKeepsDraft(t *testing.T) {
	fs := newFakeStore()
	id := fs.seed("u1", "Coffee", "3.5", core.Expense, "2024-01-03")
	e := loadedEngine(t, fs, "u1")
	assert.NoError(t, e.SelectForEdit(id))

	boom := errors.New("write refused")
	fs.failUpdate = boom
	d := e.Draft()
	d.Title = "Tea"
	err := e.Save(context.Background(), d)

	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "update", perr.Op)
	assert.Equal(t, id, perr.ID)
	assert.True(t, errors.Is(err, boom))

	assert.Equal(t, d, e.Draft())
	editing, ok := e.Editing()
	assert.True(t, ok)
	assert.Equal(t, id, editing)
	assert.Equal(t, "Coffee", e.Transactions()[0].Title)

	fs.failUpdate = nil
	assert.NoError(t, e.Save(context.Background(), e.Draft()))
	assert.Equal(t, "Tea", e.Transactions()[0].Title)
}

func TestEngineSelectForEditNotFound(t *testing.T) {
	fs := newFakeStore()
	e := loadedEngine(t, fs, "u1")
	err := e.SelectForEdit("missing")

	var nerr *NotFoundError
	assert.True(t, errors.As(err, &nerr))
	assert.Equal(t, "missing", nerr.ID)
	_, ok := e.Editing()
	assert.False(t, ok)
}

func TestEngineDeleteRequiresSelection(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	b := fs.seed("u1", "B", "1", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")

	assert.IsError(t, e.Delete(context.Background(), a), ErrSelectionMismatch)

	assert.NoError(t, e.SelectForEdit(b))
	assert.IsError(t, e.Delete(context.Background(), a), ErrSelectionMismatch)
	assert.IsError(t, e.Delete(context.Background(), ""), ErrSelectionMismatch)
	assert.Equal(t, 0, fs.Calls("delete"))
	assert.Equal(t, 2, len(e.Transactions()))
}

func TestEngineDelete(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "10", core.Income, "2024-01-01")
	fs.seed("u1", "B", "4", core.Expense, "2024-01-01")
	e := loadedEngine(t, fs, "u1")

	assert.NoError(t, e.SelectForEdit(a))
	assert.NoError(t, e.Delete(context.Background(), a))

	assert.Equal(t, 1, fs.Calls("delete"))
	assert.Equal(t, []string{"B"}, titles(e.Transactions()))
	_, ok := e.Editing()
	assert.False(t, ok)
	assert.Equal(t, "-4", e.DeriveView(FilterCriteria{}).Summary.Balance.String())
}

func TestEngineDeleteFailure(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "10", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	assert.NoError(t, e.SelectForEdit(a))

	fs.failDelete = errors.New("nope")
	err := e.Delete(context.Background(), a)

	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "delete", perr.Op)
	assert.Equal(t, 1, len(e.Transactions()))
	editing, _ := e.Editing()
	assert.Equal(t, a, editing)
}

func TestEngineCancelEdit(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "10", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")

	assert.NoError(t, e.SelectForEdit(a))
	e.CancelEdit()
	_, ok := e.Editing()
	assert.False(t, ok)
	assert.Equal(t, NewDraft(fixedNow), e.Draft())
	assert.IsError(t, e.Delete(context.Background(), a), ErrSelectionMismatch)
}

func TestEngineDeriveViewRecomputes(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "Rent", "800", core.Expense, "2024-01-01")
	fs.seed("u1", "Salary", "2000", core.Income, "2024-02-01")
	e := loadedEngine(t, fs, "u1")

	view := e.DeriveView(FilterCriteria{Search: "rent", Month: "2024-01"})
	assert.Equal(t, []string{"Rent"}, titles(view.Visible))
	assert.Equal(t, "1200", view.Summary.Balance.String())

	assert.NoError(t, e.Save(context.Background(), Draft{Title: "Rent deposit", Amount: "100", Type: "expense", Category: "Housing", Date: "2024-01-10"}))
	view = e.DeriveView(FilterCriteria{Search: "rent", Month: "2024-01"})
	assert.Equal(t, []string{"Rent deposit", "Rent"}, titles(view.Visible))
	assert.Equal(t, "1100", view.Summary.Balance.String())
}

func TestEngineNewerLoadSupersedesOlder(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "A", "1", core.Income, "2024-01-01")

	entered := make(chan struct{})
	fs.listHook = func(ctx context.Context, call int) error {
		if call != 1 {
			return nil
		}
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}

	e := newTestEngine(t, fs)
	first := make(chan error, 1)
	go func() { first <- e.Load(context.Background(), "u1") }()
	<-entered

	assert.NoError(t, e.Load(context.Background(), "u1"))

	select {
	case err := <-first:
		assert.True(t, errors.Is(err, ErrLoadSuperseded), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("first load was not cancelled")
	}
	assert.Equal(t, []string{"A"}, titles(e.Transactions()))
}

func TestEngineReset(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	assert.NoError(t, e.SelectForEdit(a))

	e.Reset()
	assert.Equal(t, "", e.UserID())
	assert.Equal(t, 0, len(e.Transactions()))
	_, ok := e.Editing()
	assert.False(t, ok)
}

// blockWrites makes the next store write wait until release is closed.
func blockWrites(fs *fakeStore) (entered, release chan struct{}) {
	entered, release = make(chan struct{}), make(chan struct{})
	var once sync.Once
	fs.writeHook = func(context.Context) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}
	return entered, release
}

func waitErr(t *testing.T, ch <-chan error, what string) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not finish", what)
		return nil
	}
}

func TestEngineResetDuringSaveKeepsLedgerCleared(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	entered, release := blockWrites(fs)

	saved := make(chan error, 1)
	go func() {
		saved <- e.Save(context.Background(), Draft{
			Title: "B", Amount: "2", Type: "income", Category: "Misc", Date: "2024-01-02",
		})
	}()
	<-entered
	e.Reset()
	close(release)

	assert.NoError(t, waitErr(t, saved, "save"))
	assert.Equal(t, "", e.UserID())
	assert.Equal(t, 0, len(e.Transactions()))
	assert.Equal(t, 1, fs.Calls("list"))
}

func TestEngineResetDuringDeleteKeepsLedgerCleared(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	fs.seed("u1", "B", "2", core.Income, "2024-01-02")
	e := loadedEngine(t, fs, "u1")
	assert.NoError(t, e.SelectForEdit(a))
	entered, release := blockWrites(fs)

	deleted := make(chan error, 1)
	go func() { deleted <- e.Delete(context.Background(), a) }()
	<-entered
	e.Reset()
	close(release)

	assert.NoError(t, waitErr(t, deleted, "delete"))
	assert.Equal(t, "", e.UserID())
	assert.Equal(t, 0, len(e.Transactions()))
	_, editing := e.Editing()
	assert.False(t, editing)
}

func TestEngineLoadWaitsForSaveAndSucceeds(t *testing.T) {
	fs := newFakeStore()
	fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	entered, release := blockWrites(fs)

	saved := make(chan error, 1)
	go func() {
		saved <- e.Save(context.Background(), Draft{
			Title: "B", Amount: "2", Type: "income", Category: "Misc", Date: "2024-01-02",
		})
	}()
	<-entered

	loaded := make(chan error, 1)
	go func() { loaded <- e.Load(context.Background(), "u1") }()
	select {
	case err := <-loaded:
		t.Fatalf("load finished while save held the engine: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	assert.NoError(t, waitErr(t, saved, "save"))
	assert.NoError(t, waitErr(t, loaded, "load"))
	assert.Equal(t, []string{"B", "A"}, titles(e.Transactions()))
}

func TestEngineSaveReportsUpdateWhenSlotUnavailable(t *testing.T) {
	fs := newFakeStore()
	a := fs.seed("u1", "A", "1", core.Income, "2024-01-01")
	e := loadedEngine(t, fs, "u1")
	assert.NoError(t, e.SelectForEdit(a))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Save(ctx, e.Draft())

	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, log.OpUpdate, perr.Op)
	assert.Equal(t, 0, fs.Calls("update"))
}
