// Package ledger holds a user's transactions in memory, derives the summary
// and filtered views from them, and orchestrates writes through a store.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/store"
)

// View is the derived state handed to the presentation layer.
type View struct {
	Criteria FilterCriteria
	Summary  core.Summary
	Visible  []core.Transaction
}

// Engine is the ledger of a single user. Load, Save and Delete are
// serialized; a Load cancels any load that is still pending or running.
type Engine struct {
	store  store.Store
	logger *log.Logger
	now    func() time.Time
	ops    *semaphore.Weighted

	mu         sync.Mutex
	userID     string
	txs        []core.Transaction
	editingID  string
	draft      Draft
	loadSeq    uint64
	loadedSeq  uint64
	reloadSeq  uint64
	reloadUser string
	gen        uint64 // bumped by Reset
	cancelLoad context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithClock sets the time source used for draft defaults.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an empty engine over s. Nothing is loaded until Load.
func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: log.Nop(),
		now:    time.Now,
		ops:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.draft = NewDraft(e.now())
	return e
}

// Load replaces the in-memory ledger with the user's transactions from the
// store. On failure the previous state is kept and a *LoadError is returned.
// A Load still waiting behind a Save or Delete of the same user succeeds
// once that write has reloaded the ledger.
func (e *Engine) Load(ctx context.Context, userID string) error {
	parent := ctx
	ctx, seq, gen, done := e.beginLoad(ctx, "")
	defer done()

	if err := e.ops.Acquire(ctx, 1); err != nil {
		if reloadSeq, ok := e.supersededByReload(userID, seq); ok {
			return e.awaitReload(parent, userID, reloadSeq)
		}
		return e.loadAborted(userID, seq, err)
	}
	defer e.ops.Release(1)

	return e.load(ctx, userID, seq, gen)
}

// Save validates the draft and creates a transaction, or updates the one
// selected for editing. On success the editing state is cleared and the
// ledger reloaded. On a store failure the draft is kept for a retry.
// A Reset while the write is in flight leaves the engine signed out.
func (e *Engine) Save(ctx context.Context, d Draft) error {
	op := log.OpCreate
	if _, editing := e.Editing(); editing {
		op = log.OpUpdate
	}
	if err := e.ops.Acquire(ctx, 1); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	defer e.ops.Release(1)

	e.mu.Lock()
	userID, editingID, gen := e.userID, e.editingID, e.gen
	e.draft = d
	e.mu.Unlock()

	if userID == "" {
		return ErrNotSignedIn
	}
	data, err := d.Parse(userID)
	if err != nil {
		e.logger.DebugContext(ctx, "Draft rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldUserID, userID,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err)
		return err
	}

	op = log.OpCreate
	id := editingID
	if editingID != "" {
		op = log.OpUpdate
		err = e.store.UpdateTransaction(ctx, editingID, data)
	} else {
		id, err = e.store.CreateTransaction(ctx, data)
	}
	if err != nil {
		errType := log.ErrorTypeDatabase
		if errors.Is(err, store.ErrNotFound) {
			errType = log.ErrorTypeNotFound
		}
		fields := log.NewFields().
			WithOperation(op).
			WithUser(userID).
			WithTransaction(editingID, data.Title, core.FormatAmount(data.Amount), data.Type.String(), data.Category).
			WithError(err).
			WithErrorType(errType)
		fields[log.FieldDate] = data.Date.String()
		e.logger.ErrorContext(ctx, "Failed to save transaction", fields.ToSlice()...)
		return &PersistenceError{Op: op, ID: editingID, Err: err}
	}

	e.logger.InfoContext(ctx, "Transaction saved",
		log.FieldOperation, op,
		log.FieldUserID, userID,
		log.FieldTransactionID, id,
		log.FieldAmount, core.FormatAmount(data.Amount),
		log.FieldType, data.Type.String())

	if !e.finishWrite(ctx, userID, gen) {
		return nil
	}
	return e.reload(ctx, userID, gen)
}

// Delete removes the transaction currently selected for editing. Any other
// id fails with ErrSelectionMismatch without touching the store.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if !e.isSelected(id) {
		return ErrSelectionMismatch
	}
	if err := e.ops.Acquire(ctx, 1); err != nil {
		return &PersistenceError{Op: log.OpDelete, ID: id, Err: err}
	}
	defer e.ops.Release(1)

	// The selection may have moved while waiting for the previous operation.
	if !e.isSelected(id) {
		return ErrSelectionMismatch
	}

	e.mu.Lock()
	userID, gen := e.userID, e.gen
	e.mu.Unlock()

	if err := e.store.DeleteTransaction(ctx, id); err != nil {
		errType := log.ErrorTypeDatabase
		if errors.Is(err, store.ErrNotFound) {
			errType = log.ErrorTypeNotFound
		}
		e.logger.ErrorContext(ctx, "Failed to delete transaction",
			log.FieldOperation, log.OpDelete,
			log.FieldUserID, userID,
			log.FieldTransactionID, id,
			log.FieldErrorType, errType,
			log.FieldError, err)
		return &PersistenceError{Op: log.OpDelete, ID: id, Err: err}
	}

	e.logger.InfoContext(ctx, "Transaction deleted", log.FieldUserID, userID, log.FieldTransactionID, id)

	if !e.finishWrite(ctx, userID, gen) {
		return nil
	}
	return e.reload(ctx, userID, gen)
}

// finishWrite clears the editing state after a successful write. It reports
// false when the engine was reset since the write started; the state then
// belongs to nobody and must stay empty.
func (e *Engine) finishWrite(ctx context.Context, userID string, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.logger.InfoContext(ctx, "Engine reset during write, ledger not reloaded", log.FieldUserID, userID)
		return false
	}
	e.editingID = ""
	e.draft = NewDraft(e.now())
	return true
}

// SelectForEdit marks the transaction as being edited and copies its values
// into the draft.
func (e *Engine) SelectForEdit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tx := range e.txs {
		if tx.ID == id {
			e.editingID = id
			e.draft = DraftFrom(tx)
			return nil
		}
	}
	e.logger.Debug("Transaction not in ledger",
		log.FieldOperation, log.OpSelect,
		log.FieldUserID, e.userID,
		log.FieldTransactionID, id,
		log.FieldErrorType, log.ErrorTypeNotFound)
	return &NotFoundError{ID: id}
}

// CancelEdit leaves editing mode and resets the draft.
func (e *Engine) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editingID = ""
	e.draft = NewDraft(e.now())
}

// SetDraft replaces the form values without saving them.
func (e *Engine) SetDraft(d Draft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = d
}

// Draft returns the current form values.
func (e *Engine) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Editing returns the id selected for editing, if any.
func (e *Engine) Editing() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID, e.editingID != ""
}

// UserID returns the user whose ledger is loaded.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Transactions returns a copy of the loaded ledger, newest first.
func (e *Engine) Transactions() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.txs...)
}

// DeriveView computes the summary over the whole ledger and the visible
// subset for the criteria. Nothing is cached between calls.
func (e *Engine) DeriveView(c FilterCriteria) View {
	txs := e.Transactions()
	return View{
		Criteria: c,
		Summary:  Aggregate(txs),
		Visible:  c.Apply(txs),
	}
}

// Reset drops all state and cancels any load in progress. A Save or Delete
// already running still completes its write but no longer reloads.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.gen++
	e.loadSeq++
	e.userID = ""
	e.txs = nil
	e.editingID = ""
	e.draft = NewDraft(e.now())
}

func (e *Engine) isSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return id != "" && e.editingID == id
}

// reload runs a load while the caller already holds the operation slot.
// A reload overtaken by a newer Load or by a Reset is not an error: the
// newer state wins.
func (e *Engine) reload(ctx context.Context, userID string, gen uint64) error {
	ctx, seq, _, done := e.beginLoad(ctx, userID)
	defer done()
	err := e.load(ctx, userID, seq, gen)
	if errors.Is(err, ErrLoadSuperseded) {
		return nil
	}
	return err
}

// beginLoad cancels the previous load and returns a context for the new one
// with its sequence number and the current generation. reloadFor is set
// when the load refreshes userID after a write.
func (e *Engine) beginLoad(ctx context.Context, reloadFor string) (context.Context, uint64, uint64, func()) {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	e.loadSeq++
	seq, gen := e.loadSeq, e.gen
	e.cancelLoad = cancel
	if reloadFor != "" {
		e.reloadSeq, e.reloadUser = seq, reloadFor
	}
	e.mu.Unlock()

	return ctx, seq, gen, func() {
		cancel()
		e.mu.Lock()
		if e.loadSeq == seq {
			e.cancelLoad = nil
		}
		e.mu.Unlock()
	}
}

// supersededByReload reports whether the load seq was overtaken by the
// reload of a write for the same user, and that reload is still the latest.
func (e *Engine) supersededByReload(userID string, seq uint64) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.reloadSeq > seq && e.reloadSeq == e.loadSeq && e.reloadUser == userID
	return e.reloadSeq, ok
}

// awaitReload waits for the write holding the operation slot to finish and
// succeeds when its reload published userID's ledger.
func (e *Engine) awaitReload(ctx context.Context, userID string, reloadSeq uint64) error {
	if err := e.ops.Acquire(ctx, 1); err != nil {
		return &LoadError{UserID: userID, Err: err}
	}
	e.ops.Release(1)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadedSeq == reloadSeq && e.userID == userID {
		return nil
	}
	return &LoadError{UserID: userID, Err: ErrLoadSuperseded}
}

func (e *Engine) load(ctx context.Context, userID string, seq, gen uint64) error {
	start := e.now()
	txs, err := e.store.ListTransactions(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.loadSeq || gen != e.gen {
		return &LoadError{UserID: userID, Err: ErrLoadSuperseded}
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load transactions",
			log.FieldOperation, log.OpLoad,
			log.FieldUserID, userID,
			log.FieldError, err)
		return &LoadError{UserID: userID, Err: err}
	}

	owned := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.UserID == userID {
			owned = append(owned, tx)
		}
	}
	if dropped := len(txs) - len(owned); dropped > 0 {
		e.logger.WarnContext(ctx, "Dropped transactions owned by another user",
			log.FieldUserID, userID, log.FieldCount, dropped)
	}

	if e.userID != userID {
		e.editingID = ""
		e.draft = NewDraft(e.now())
	}
	e.userID = userID
	e.txs = owned
	e.loadedSeq = seq

	e.logger.DebugContext(ctx, "Transactions loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldUserID, userID,
		log.FieldCount, len(owned),
		log.FieldDuration, e.now().Sub(start).Milliseconds())
	return nil
}

func (e *Engine) loadAborted(userID string, seq uint64, err error) error {
	e.mu.Lock()
	superseded := seq != e.loadSeq
	e.mu.Unlock()
	if superseded {
		return &LoadError{UserID: userID, Err: ErrLoadSuperseded}
	}
	return &LoadError{UserID: userID, Err: err}
}
