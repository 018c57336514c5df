// Package search drives the search of news, expanding the results
// page by page, and discards responses of superseded requests.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	"golang.org/x/exp/slog"
)

// Defaults of the controller.
const (
	DefaultPageSize  = 5
	DefaultIncrement = 5
	DefaultTimeout   = 20 * time.Second
)

const (
	analysisTopN  = 20
	keywordsShown = 6
)

// Messages shown to the user on failures.
const (
	MsgSearchFailed   = "Failed to search news, please try again later."
	MsgTimedOut       = "The search took too long, please try again."
	MsgLoadMoreFailed = "Could not load more articles."
)

//go:generate moq -out mock_backend.go . Backend
//go:generate moq -out mock_recorder.go . Recorder

// Backend defines methods of the backend to search and analyze news.
type Backend interface {
	SearchNews(ctx context.Context, req backend.SearchRequest) (backend.SearchResult, error)
	Analyze(ctx context.Context, articles []store.Article, topN int) (store.Analysis, error)
}

// Session tells whether the user is logged in.
type Session interface {
	Authorize(ctx context.Context) (context.Context, bool)
}

// Recorder remembers successful searches of the logged in user.
type Recorder interface {
	Record(ctx context.Context, q store.Query, resultsCount int)
}

// State is a snapshot of the search.
type State struct {
	Query            store.Query
	Articles         []store.Article
	TotalAvailable   int
	RequestedCount   int
	IsLoadingInitial bool
	IsLoadingMore    bool
	Error            string

	Analysis    store.Analysis
	IsAnalyzing bool
}

// HasMore returns true if more articles can be loaded.
func (s State) HasMore() bool {
	return len(s.Articles) < s.TotalAvailable && !s.IsLoadingMore
}

// Controller runs searches for a single user.
// All methods are safe for concurrent use, the most recent search wins.
type Controller struct {
	api Backend
	Options

	mu       sync.Mutex
	state    State
	gen      uint64 // increments on every search
	loadable bool   // last search succeeded, so it can be expanded

	wg sync.WaitGroup
}

// NewController makes a new Controller.
func NewController(api Backend, opts ...Option) *Controller {
	options := Options{
		PageSize:  DefaultPageSize,
		Increment: DefaultIncrement,
		Timeout:   DefaultTimeout,
		Logger:    slog.New(logx.NoOp()),
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Controller{api: api, Options: options}
}

// State returns the current state of the search.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Wait waits for the side effects of searches, history and analysis, to finish.
func (c *Controller) Wait() { c.wg.Wait() }

// Search runs a new search, superseding any search or load in flight.
// Returns the state after the search is committed or discarded.
func (c *Controller) Search(ctx context.Context, q store.Query) State {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loadable = false
	c.state.Query = q
	c.state.RequestedCount = c.PageSize
	c.state.IsLoadingInitial = true
	c.state.IsLoadingMore = false
	c.state.Error = ""
	c.state.Analysis = store.Analysis{}
	c.state.IsAnalyzing = false
	c.mu.Unlock()

	var res backend.SearchResult
	err := q.Validate()
	if err == nil {
		res, err = c.fetch(ctx, q, c.PageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		staleResponses.WithLabelValues("search").Inc()
		c.Logger.DebugCtx(ctx, "discarded stale search response", slog.String("keyword", q.Keyword))
		return c.snapshot()
	}

	c.state.IsLoadingInitial = false

	if err != nil {
		requests.WithLabelValues("search", "error").Inc()
		c.Logger.WarnCtx(ctx, "search failed", slog.String("keyword", q.Keyword), slog.Any("err", err))
		c.state.Articles = nil
		c.state.TotalAvailable = 0
		c.state.Error = errorMessage(err, MsgSearchFailed)
		return c.snapshot()
	}

	requests.WithLabelValues("search", "success").Inc()
	c.state.Articles = res.Articles
	c.state.TotalAvailable = res.Total
	c.loadable = true

	c.record(ctx, q, res.Total)
	c.analyze(ctx, gen, res.Articles)

	return c.snapshot()
}

// LoadMore expands the last successful search by the increment.
// It does nothing if there is no such search or a load is in flight.
func (c *Controller) LoadMore(ctx context.Context) State {
	c.mu.Lock()
	if !c.loadable || c.state.IsLoadingMore {
		defer c.mu.Unlock()
		return c.snapshot()
	}

	gen := c.gen
	c.state.IsLoadingMore = true
	c.state.RequestedCount += c.Increment
	q, count := c.state.Query, c.state.RequestedCount
	c.mu.Unlock()

	res, err := c.fetch(ctx, q, count)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		staleResponses.WithLabelValues("load_more").Inc()
		c.Logger.DebugCtx(ctx, "discarded stale load more response", slog.Int("count", count))
		return c.snapshot()
	}

	c.state.IsLoadingMore = false

	if err != nil {
		requests.WithLabelValues("load_more", "error").Inc()
		c.Logger.WarnCtx(ctx, "failed to load more", slog.Int("count", count), slog.Any("err", err))
		c.state.Error = MsgLoadMoreFailed
		return c.snapshot()
	}

	requests.WithLabelValues("load_more", "success").Inc()
	c.state.Articles = res.Articles
	c.state.TotalAvailable = res.Total
	return c.snapshot()
}

func (c *Controller) fetch(ctx context.Context, q store.Query, count int) (backend.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	return c.api.SearchNews(ctx, backend.SearchRequest{Query: q, Count: count})
}

// record persists the search in background, if the user is logged in.
// Must be called with mu held.
func (c *Controller) record(ctx context.Context, q store.Query, resultsCount int) {
	if c.Session == nil || c.Recorder == nil {
		return
	}

	if _, ok := c.Session.Authorize(ctx); !ok {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(logx.Detach(ctx), c.Timeout)
		defer cancel()

		c.Recorder.Record(ctx, q, resultsCount)
	}()
}

// analyze requests keyword rankings of the results in background.
// Must be called with mu held.
func (c *Controller) analyze(ctx context.Context, gen uint64, articles []store.Article) {
	if !c.Analysis || len(articles) == 0 {
		return
	}

	c.state.IsAnalyzing = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(logx.Detach(ctx), c.Timeout)
		defer cancel()

		analysis, err := c.api.Analyze(ctx, articles, analysisTopN)

		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.gen {
			staleResponses.WithLabelValues("analysis").Inc()
			return
		}

		c.state.IsAnalyzing = false

		if err != nil {
			requests.WithLabelValues("analysis", "error").Inc()
			c.Logger.WarnCtx(ctx, "failed to analyze articles", slog.Any("err", err))
			return
		}

		requests.WithLabelValues("analysis", "success").Inc()
		if len(analysis.Keywords) > keywordsShown {
			analysis.Keywords = analysis.Keywords[:keywordsShown]
		}
		c.state.Analysis = analysis
	}()
}

// snapshot copies the state, so that the caller can't alter it.
// Must be called with mu held.
func (c *Controller) snapshot() State {
	st := c.state
	st.Articles = append([]store.Article(nil), c.state.Articles...)
	st.Analysis.Keywords = append([]store.Keyword(nil), c.state.Analysis.Keywords...)
	return st
}

func errorMessage(err error, fallback string) string {
	if msg, ok := backend.Message(err); ok && msg != "" {
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimedOut
	}
	if errors.Is(err, store.ErrBadDateRange) {
		return "The start date must not be after the end date."
	}
	return fallback
}
