// Package google stores transactions as rows of a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finledger/internal/core"
	"finledger/internal/store"
)

const defaultSheetName = "Transactions"

var ErrMissingSpreadsheetID = errors.New("missing spreadsheet id")

type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client keeps one row per transaction: header in row 1, records below.
// Deleted records leave a cleared row behind so row numbers stay stable.
type Client struct {
	values valuesAPI
	sheet  string
	now    func() time.Time

	// serializes read-modify-write sequences against the sheet
	mu sync.Mutex
}

var _ store.Store = (*Client)(nil)

// New creates a Sheets-backed store using Service Account credentials and
// writes the header row when the sheet is empty.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	c := newClient(sheetsValues{svc: svc, spreadsheetID: spreadsheetID}, opts.SheetName)
	if err := c.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(values valuesAPI, sheet string) *Client {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = defaultSheetName
	}
	return &Client{values: values, sheet: sheet, now: time.Now}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last fallback.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:H1", c.sheet)
	rows, err := c.values.Get(ctx, rng)
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	if err := c.values.Update(ctx, rng, [][]any{header}); err != nil {
		return fmt.Errorf("write header to %s: %w", c.sheet, err)
	}
	return nil
}

type sheetRow struct {
	num int
	tx  core.Transaction
}

// readRows returns every decodable record with its 1-based row number.
func (c *Client) readRows(ctx context.Context) ([]sheetRow, error) {
	rng := fmt.Sprintf("%s!A2:H", c.sheet)
	values, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]sheetRow, 0, len(values))
	for i, row := range values {
		tx, ok := parseRow(row)
		if !ok {
			continue
		}
		out = append(out, sheetRow{num: i + 2, tx: tx})
	}
	return out, nil
}

func (c *Client) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	mine := rows[:0]
	for _, r := range rows {
		if r.tx.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		a, b := mine[i], mine[j]
		if !a.tx.CreatedAt.Equal(b.tx.CreatedAt) {
			return a.tx.CreatedAt.After(b.tx.CreatedAt)
		}
		return a.num > b.num
	})
	out := make([]core.Transaction, len(mine))
	for i, r := range mine {
		out[i] = r.tx
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, data core.TransactionData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	tx := core.Transaction{
		ID:        uuid.NewString(),
		UserID:    data.UserID,
		Title:     data.Title,
		Amount:    data.Amount,
		Type:      data.Type,
		Category:  data.Category,
		Date:      data.Date,
		CreatedAt: c.now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rng := fmt.Sprintf("%s!A:H", c.sheet)
	if err := c.values.Append(ctx, rng, [][]any{formatRow(tx)}); err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	slog.InfoContext(ctx, "Transaction appended to sheet", "id", tx.ID, "sheet", c.sheet)
	return tx.ID, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, data core.TransactionData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	row, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	if row.tx.UserID != data.UserID {
		return store.ErrNotFound
	}
	tx := row.tx
	tx.Title = data.Title
	tx.Amount = data.Amount
	tx.Type = data.Type
	tx.Category = data.Category
	tx.Date = data.Date

	if err := c.values.Update(ctx, rowRange(c.sheet, row.num), [][]any{formatRow(tx)}); err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", row.num, c.sheet, err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	if err := c.values.Clear(ctx, rowRange(c.sheet, row.num)); err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row.num, c.sheet, err)
	}
	slog.InfoContext(ctx, "Transaction cleared from sheet", "id", id, "row", row.num)
	return nil
}

func (c *Client) find(ctx context.Context, id string) (sheetRow, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return sheetRow{}, err
	}
	for _, r := range rows {
		if r.tx.ID == id {
			return r, nil
		}
	}
	return sheetRow{}, store.ErrNotFound
}
