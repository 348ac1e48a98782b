package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
)

// Config is the per-batch snapshot of the source endpoint settings.
type Config struct {
	Endpoint  string
	Method    string
	Query     string
	PageSize  int
	Timeout   time.Duration
	UserAgent string
}

// Client fetches one page of raw records per batch and tracks the offset
// cursor across invocations through the state repository.
//
// Offset semantics: 0 means "ready to start a new full batch"; a positive
// value means "batch in progress, resume here". A page shorter than the
// configured page size completes the batch and resets the cursor to 0.
type Client struct {
	cfg        Config
	state      database.StateRepository
	httpClient *http.Client
}

func NewClient(cfg Config, state database.StateRepository, httpClient *http.Client) *Client {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		cfg:        cfg,
		state:      state,
		httpClient: httpClient,
	}
}

// Offset returns the persisted cursor position for the next page.
func (c *Client) Offset() (int, error) {
	return c.state.GetOffset()
}

// FetchPage fetches the page at the current offset using the given bearer
// token. Transport errors, HTTP >= 400, and malformed bodies are logged
// and degrade to an empty page: the caller observes zero records fetched,
// which completes the batch on the next advance.
func (c *Client) FetchPage(ctx context.Context, token string) []listing.Record {
	offset, err := c.state.GetOffset()
	if err != nil {
		slog.Error("Failed to read offset cursor", "error", err)
		return nil
	}

	url := c.buildURL(offset)

	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, c.cfg.Method, url, nil)
	if err != nil {
		slog.Error("Failed to create source request", "url", url, "error", err)
		return nil
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Source request failed", "url", url, "offset", offset, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Error("Source returned error status", "url", url, "offset", offset, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read source response", "url", url, "error", err)
		return nil
	}

	return parseRecords(body, url)
}

// AdvanceOffset moves the cursor after a page has been processed: a full
// page continues at previous offset + count, a short page (including an
// empty one) completes the batch and resets the cursor to 0.
func (c *Client) AdvanceOffset(fetched int) (int, error) {
	offset, err := c.state.GetOffset()
	if err != nil {
		return 0, err
	}

	next := 0
	if fetched >= c.cfg.PageSize && c.cfg.PageSize > 0 {
		next = offset + fetched
	}

	if err := c.state.SetOffset(next); err != nil {
		return 0, fmt.Errorf("failed to persist offset: %w", err)
	}

	return next, nil
}

// ResetOffset rewinds the cursor so the next batch restarts from the
// first page.
func (c *Client) ResetOffset() error {
	if err := c.state.SetOffset(0); err != nil {
		return fmt.Errorf("failed to reset offset: %w", err)
	}

	slog.Info("Import offset reset")
	return nil
}

func (c *Client) buildURL(offset int) string {
	// The stored query string is operator-entered; whitespace (including
	// line breaks from a settings form) is stripped.
	query := strings.Join(strings.Fields(c.cfg.Query), "")

	paging := fmt.Sprintf("limit=%d&offset=%d", c.cfg.PageSize, offset)
	if query != "" {
		query = query + "&" + paging
	} else {
		query = paging
	}

	sep := "?"
	if strings.Contains(c.cfg.Endpoint, "?") {
		sep = "&"
	}

	return c.cfg.Endpoint + sep + query
}

func parseRecords(body []byte, url string) []listing.Record {
	trimmed := strings.TrimSpace(string(body))
	// The source signals end-of-data with an empty body or an empty JSON
	// string instead of an empty array.
	if trimmed == "" || trimmed == `""` {
		return nil
	}

	var records []listing.Record
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		slog.Error("Failed to parse source response", "url", url, "error", err)
		return nil
	}

	return records
}
