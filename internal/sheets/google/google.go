// Package google mirrors records into a Google Sheets spreadsheet, one row
// per record keyed by the record id in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"scontrini/internal/core"
	ports "scontrini/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Header is written to row 1 of an empty mirror sheet.
var Header = []any{"ID", "Date", "Restaurant", "Amounts", "Subtotal", "User"}

const defaultRowCacheTTL = 2 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger

	// row index cache: record id -> 1-based sheet row
	mu                 sync.Mutex
	rowIndex           map[int64]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
	sheetID            *int64
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets mirror client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Scontrini"
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		logger:             logger.With("component", "sheets"),
		cacheValidDuration: defaultRowCacheTTL,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		credentialsJSON, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
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

// EnsureHeader writes Header to row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:F1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.invalidateRowCache()
	return nil
}

// UpsertRecord implements ports.RecordMirror
func (c *Client) UpsertRecord(ctx context.Context, d core.RecordDetail) error {
	if d.ID <= 0 {
		return fmt.Errorf("cannot mirror record without a stored id")
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	index, rowCount, err := c.rows(ctx)
	if err != nil {
		return err
	}
	row, exists := index[d.ID]
	if !exists {
		row = rowCount + 1
	}

	rng := fmt.Sprintf("%s!A%d:F%d", c.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{recordRow(d)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache()
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}

	if !exists {
		c.mu.Lock()
		if c.rowIndex != nil {
			c.rowIndex[d.ID] = row
			c.cachedRowCount = row
		}
		c.mu.Unlock()
	}
	c.logger.DebugContext(ctx, "Mirrored record", "record_id", d.ID, "row", row, "inserted", !exists)
	return nil
}

// DeleteRecord implements ports.RecordMirror
func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	index, _, err := c.rows(ctx)
	if err != nil {
		return err
	}
	row, ok := index[id]
	if !ok {
		return nil
	}
	sheetID, err := c.sheetIDFor(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	// Deleting shifts every following row up.
	defer c.invalidateRowCache()
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	c.logger.DebugContext(ctx, "Removed mirrored record", "record_id", id, "row", row)
	return nil
}

// ListRecordIDs implements ports.MirrorLister
func (c *Client) ListRecordIDs(ctx context.Context) ([]int64, error) {
	index, _, err := c.rows(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	return ids, nil
}

// rows returns the id index and row count, reading column A when the cache
// has expired.
func (c *Client) rows(ctx context.Context) (map[int64]int, int, error) {
	c.mu.Lock()
	if c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt) {
		index := make(map[int64]int, len(c.rowIndex))
		for k, v := range c.rowIndex {
			index[k] = v
		}
		count := c.cachedRowCount
		c.mu.Unlock()
		return index, count, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	index, count := indexRows(resp.Values)

	c.mu.Lock()
	c.rowIndex = index
	c.cachedRowCount = count
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	out := make(map[int64]int, len(index))
	for k, v := range index {
		out[k] = v
	}
	return out, count, nil
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rowIndex = nil
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) sheetIDFor(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.sheetID != nil {
		id := *c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.mu.Lock()
			c.sheetID = &id
			c.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// recordRow is the mirrored representation of d.
func recordRow(d core.RecordDetail) []any {
	amounts := make([]string, len(d.Amounts))
	for i, a := range d.Amounts {
		amounts[i] = a.String()
	}
	return []any{
		d.ID,
		d.IssuedAt.String(),
		d.RestaurantName,
		strings.Join(amounts, "; "),
		d.Subtotal().InexactFloat64(),
		d.UserID,
	}
}

// indexRows maps the ids found in column A to their 1-based row. The row
// count includes the header and any rows that do not hold an id.
func indexRows(values [][]any) (map[int64]int, int) {
	index := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if id, ok := parseRowID(row[0]); ok {
			index[id] = i + 1
		}
	}
	return index, len(values)
}

func parseRowID(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), x > 0 && x == float64(int64(x))
	case int64:
		return x, x > 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(v)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
