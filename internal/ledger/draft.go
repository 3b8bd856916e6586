package ledger

import (
	"errors"
	"strings"
	"time"

	"finledger/internal/core"
)

// Draft holds the in-progress form values of a create or update, as text.
type Draft struct {
	Title    string
	Amount   string
	Type     string
	Category string
	Date     string // YYYY-MM-DD
}

// NewDraft returns an empty draft with the form defaults: income, dated today.
func NewDraft(now time.Time) Draft {
	return Draft{
		Type: core.Income.String(),
		Date: core.DateOf(now).String(),
	}
}

// DraftFrom fills a draft with the values of an existing transaction.
func DraftFrom(tx core.Transaction) Draft {
	date := tx.Date.String()
	if t, err := tx.Date.Time(); err == nil {
		date = core.DateOf(t).String()
	}
	return Draft{
		Title:    tx.Title,
		Amount:   tx.Amount.String(),
		Type:     tx.Type.String(),
		Category: tx.Category,
		Date:     date,
	}
}

// Parse validates the draft and converts it into the writable fields of a
// transaction owned by userID. Failures are *ValidationError.
func (d Draft) Parse(userID string) (core.TransactionData, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return core.TransactionData{}, &ValidationError{Field: "title", Reason: "required", Err: core.ErrEmptyTitle}
	}
	if strings.TrimSpace(d.Amount) == "" {
		return core.TransactionData{}, &ValidationError{Field: "amount", Reason: "required", Err: core.ErrInvalidAmount}
	}
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.TransactionData{}, &ValidationError{Field: "amount", Reason: "must be a non-negative number", Err: err}
	}
	if strings.TrimSpace(d.Type) == "" {
		return core.TransactionData{}, &ValidationError{Field: "type", Reason: "required", Err: core.ErrInvalidType}
	}
	typ, err := core.ParseTxType(d.Type)
	if err != nil {
		return core.TransactionData{}, &ValidationError{Field: "type", Reason: "must be income or expense", Err: err}
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return core.TransactionData{}, &ValidationError{Field: "category", Reason: "required", Err: core.ErrEmptyCategory}
	}
	if strings.TrimSpace(d.Date) == "" {
		return core.TransactionData{}, &ValidationError{Field: "date", Reason: "required", Err: core.ErrInvalidDate}
	}
	day, err := core.Date(d.Date).Time()
	if err != nil {
		return core.TransactionData{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD", Err: err}
	}

	data := core.TransactionData{
		UserID:   userID,
		Title:    title,
		Amount:   amount,
		Type:     typ,
		Category: category,
		Date:     core.DateOf(day),
	}
	if err := data.Validate(); err != nil {
		return core.TransactionData{}, validationFor(err)
	}
	return data, nil
}

func validationFor(err error) *ValidationError {
	switch {
	case errors.Is(err, core.ErrTitleTooLong):
		return &ValidationError{Field: "title", Reason: "too long", Err: err}
	case errors.Is(err, core.ErrEmptyUser):
		return &ValidationError{Field: "user", Reason: "required", Err: err}
	default:
		return &ValidationError{Field: "transaction", Reason: err.Error(), Err: err}
	}
}
