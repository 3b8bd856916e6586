package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the calendar-date form transactions are written with.
const DateLayout = "2006-01-02"

type (
	// TxType carries the sign of a transaction; amounts themselves are never negative.
	TxType string

	// Date is a calendar date as stored by the backend. It is kept as text so a
	// record with a malformed date can still be listed and filtered.
	Date string

	// Transaction is a persisted ledger record.
	Transaction struct {
		ID        string // Assigned by the store on creation
		UserID    string
		Title     string
		Amount    decimal.Decimal
		Type      TxType
		Category  string
		Date      Date
		CreatedAt time.Time // Assigned by the store, ordering only
	}

	// TransactionData holds the writable fields of a transaction.
	TransactionData struct {
		UserID   string
		Title    string
		Amount   decimal.Decimal
		Type     TxType
		Category string
		Date     Date
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrEmptyTitle     = errors.New("empty title")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyUser      = errors.New("empty user id")
	ErrTitleTooLong   = errors.New("title too long (max 200 characters)")
	ErrAmountNegative = errors.New("amount must not be negative")
)

// ParseTxType returns the enum value for s, accepting any letter case.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// IsValid reports whether t is one of the known types.
func (t TxType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TxType) String() string {
	return string(t)
}

// NewDate creates a Date from year, month, day
func NewDate(year, month, day int) Date {
	return DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// DateOf formats the calendar day of t.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time parses the date. Both the plain calendar form and RFC 3339 timestamps
// are accepted; timestamps are normalized to UTC.
func (d Date) Time() (time.Time, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// MonthKey returns the YYYY-MM component of the date, or false when the date
// does not parse.
func (d Date) MonthKey() (string, bool) {
	t, err := d.Time()
	if err != nil {
		return "", false
	}
	return t.Format("2006-01"), true
}

func (d Date) Validate() error {
	_, err := d.Time()
	return err
}

func (d Date) String() string {
	return string(d)
}

func (td TransactionData) Validate() error {
	if strings.TrimSpace(td.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(td.Title) == "" {
		return ErrEmptyTitle
	}
	if len(td.Title) > 200 {
		return ErrTitleTooLong
	}
	if td.Amount.IsNegative() {
		return ErrAmountNegative
	}
	if !td.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(td.Category) == "" {
		return ErrEmptyCategory
	}
	return td.Date.Validate()
}

// Data returns the writable fields of the transaction.
func (t Transaction) Data() TransactionData {
	return TransactionData{
		UserID:   t.UserID,
		Title:    t.Title,
		Amount:   t.Amount,
		Type:     t.Type,
		Category: t.Category,
		Date:     t.Date,
	}
}
