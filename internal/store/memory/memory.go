package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"finledger/internal/core"
	"finledger/internal/store"
)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   int64
	items map[string]*record
}

type record struct {
	tx  core.Transaction
	seq int64 // insertion order, breaks CreatedAt ties
}

// seedTransaction is the YAML shape of a seed file entry.
type seedTransaction struct {
	UserID   string `yaml:"user_id"`
	Title    string `yaml:"title"`
	Amount   string `yaml:"amount"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Date     string `yaml:"date"`
}

// Ensure interface conformance
var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, items: map[string]*record{}}
}

// WithClock replaces the CreatedAt source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// NewFromFile creates a store seeded with the transactions listed in a YAML
// file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedTransaction
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, sd := range seeds {
		data, err := sd.toData()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if _, err := s.CreateTransaction(context.Background(), data); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return s, nil
}

func (sd seedTransaction) toData() (core.TransactionData, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(sd.Amount))
	if err != nil {
		return core.TransactionData{}, core.ErrInvalidAmount
	}
	typ, err := core.ParseTxType(sd.Type)
	if err != nil {
		return core.TransactionData{}, err
	}
	return core.TransactionData{
		UserID:   sd.UserID,
		Title:    sd.Title,
		Amount:   amount,
		Type:     typ,
		Category: sd.Category,
		Date:     core.Date(sd.Date),
	}, nil
}

// ListTransactions returns copies of the user's records, newest first.
func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]*record, 0, len(s.items))
	for _, r := range s.items {
		if r.tx.UserID == userID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.tx.CreatedAt.Equal(b.tx.CreatedAt) {
			return a.tx.CreatedAt.After(b.tx.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]core.Transaction, len(recs))
	for i, r := range recs {
		out[i] = r.tx
	}
	return out, nil
}

// CreateTransaction stores the record under a fresh UUID.
func (s *Store) CreateTransaction(_ context.Context, data core.TransactionData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := uuid.NewString()
	s.items[id] = &record{
		seq: s.seq,
		tx: core.Transaction{
			ID:        id,
			UserID:    data.UserID,
			Title:     data.Title,
			Amount:    data.Amount,
			Type:      data.Type,
			Category:  data.Category,
			Date:      data.Date,
			CreatedAt: s.now().UTC(),
		},
	}
	return id, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, data core.TransactionData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok || r.tx.UserID != data.UserID {
		return store.ErrNotFound
	}
	r.tx.Title = data.Title
	r.tx.Amount = data.Amount
	r.tx.Type = data.Type
	r.tx.Category = data.Category
	r.tx.Date = data.Date
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
