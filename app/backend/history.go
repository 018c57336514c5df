package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Semior001/briefly/app/store"
)

const historyPath = "/api/history/"

// HistoryRequest defines parameters of a search to remember.
type HistoryRequest struct {
	Keyword      string `json:"keyword"`
	FromDate     string `json:"from_date,omitempty"`
	ToDate       string `json:"to_date,omitempty"`
	ResultsCount int    `json:"results_count"`
}

// ListHistory returns past searches of the user, newest first.
func (c *Client) ListHistory(ctx context.Context, skip, limit int) ([]store.HistoryEntry, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var entries []store.HistoryEntry
	if err := c.do(ctx, call{method: http.MethodGet, path: historyPath, query: q}, &entries); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return entries, nil
}

// CreateHistory remembers the search.
func (c *Client) CreateHistory(ctx context.Context, req HistoryRequest) (store.HistoryEntry, error) {
	var entry store.HistoryEntry
	if err := c.do(ctx, call{method: http.MethodPost, path: historyPath, body: req}, &entry); err != nil {
		return store.HistoryEntry{}, fmt.Errorf("create history entry: %w", err)
	}
	return entry, nil
}

// DeleteHistory removes a single entry.
func (c *Client) DeleteHistory(ctx context.Context, id int64) error {
	path := historyPath + strconv.FormatInt(id, 10)
	if err := c.do(ctx, call{method: http.MethodDelete, path: path}, nil); err != nil {
		return fmt.Errorf("delete history entry %d: %w", id, err)
	}
	return nil
}

// ClearHistory removes all entries of the user.
func (c *Client) ClearHistory(ctx context.Context) error {
	if err := c.do(ctx, call{method: http.MethodDelete, path: historyPath}, nil); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
