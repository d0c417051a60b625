package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"ytearnings/internal/core"
	ports "ytearnings/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client publishes period tabs to one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	attempts      int
	retryBase     time.Duration

	mu   sync.Mutex
	tabs map[string]ports.TabHandle // known tabs by title, filled on first EnsureTab
}

var _ ports.TabWriter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the number of attempts for transient API errors and the
// first backoff delay.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if base > 0 {
			c.retryBase = base
		}
	}
}

// New creates a Sheets client for spreadsheetID using creds.
func New(ctx context.Context, spreadsheetID string, creds Credentials, opts ...Option) (*Client, error) {
	copts, err := creds.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, opts...)
}

// NewWithOptions creates a client from raw API client options.
func NewWithOptions(ctx context.Context, spreadsheetID string, copts []goption.ClientOption, opts ...Option) (*Client, error) {
	svc, err := gsheet.NewService(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, opts...)
}

func NewWithService(svc *gsheet.Service, spreadsheetID string, opts ...Option) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		attempts:      3,
		retryBase:     500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// EnsureTab returns the tab titled label, adding it when missing. The tab
// list is read once per client; later calls are served from memory.
func (c *Client) EnsureTab(ctx context.Context, label string) (ports.TabHandle, error) {
	if c.svc == nil {
		return ports.TabHandle{}, errors.New("sheets service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tabs == nil {
		if err := c.loadTabs(ctx); err != nil {
			return ports.TabHandle{}, err
		}
	}
	if h, ok := c.tabs[label]; ok {
		return h, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: label}},
	}}}
	var resp *gsheet.BatchUpdateSpreadsheetResponse
	err := c.retry(ctx, "add sheet", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return ports.TabHandle{}, fmt.Errorf("add tab %q: %w", label, err)
	}
	h := ports.TabHandle{Label: label}
	if resp != nil && len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		h.ID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	c.tabs[label] = h
	slog.InfoContext(ctx, "Created tab", "tab", label, "sheet_id", h.ID)
	return h, nil
}

func (c *Client) loadTabs(ctx context.Context) error {
	var ss *gsheet.Spreadsheet
	err := c.retry(ctx, "get spreadsheet", func() error {
		var err error
		ss, err = c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	tabs := make(map[string]ports.TabHandle)
	if ss != nil {
		for _, s := range ss.Sheets {
			if s.Properties != nil {
				tabs[s.Properties.Title] = ports.TabHandle{ID: s.Properties.SheetId, Label: s.Properties.Title}
			}
		}
	}
	c.tabs = tabs
	return nil
}

func (c *Client) ClearTab(ctx context.Context, tab ports.TabHandle) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := quoteTab(tab.Label)
	return c.retry(ctx, "clear", func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
}

// WriteRows writes header and rows in a single USER_ENTERED update starting
// at A1, so formulas are evaluated by the spreadsheet.
func (c *Client) WriteRows(ctx context.Context, tab ports.TabHandle, header []string, rows []core.OutputRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: toValues(header, rows)}
	rng := quoteTab(tab.Label) + "!A1"
	return c.retry(ctx, "write", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		return err
	})
}

func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			delay := exponentialBackoff(c.retryBase, attempt)
			slog.WarnContext(ctx, "Retrying Sheets call", "op", op, "attempt", attempt+1, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

// exponentialBackoff doubles base per attempt, capped at 30s.
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d <= 0 || d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return false
}

func toValues(header []string, rows []core.OutputRow) [][]any {
	out := make([][]any, 0, len(rows)+1)
	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}
	out = append(out, h)
	for _, r := range rows {
		cells := r.Cells()
		vals := make([]any, len(cells))
		for i, cell := range cells {
			vals[i] = cell.Value()
		}
		out = append(out, vals)
	}
	return out
}

func quoteTab(label string) string {
	return "'" + strings.ReplaceAll(label, "'", "''") + "'"
}
