package search

import (
	"time"

	"golang.org/x/exp/slog"
)

// Options defines options for Controller.
type Options struct {
	PageSize  int
	Increment int
	Timeout   time.Duration
	Logger    *slog.Logger

	// Session and Recorder, if both set, remember searches of the logged in user.
	Session  Session
	Recorder Recorder

	// Analysis enables keyword rankings of the results.
	Analysis bool
}

// Option defines a function that configures Controller.
type Option func(*Options)

// WithPageSize sets the size of the first page and the increment of every next one.
func WithPageSize(size, increment int) Option {
	return func(o *Options) {
		o.PageSize = size
		o.Increment = increment
	}
}

// WithTimeout sets the timeout of a single request to the backend.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.Timeout = timeout }
}

// WithLogger sets the logger to use.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithHistory records successful searches while the session is authenticated.
func WithHistory(sess Session, rec Recorder) Option {
	return func(o *Options) {
		o.Session = sess
		o.Recorder = rec
	}
}

// WithAnalysis enables the analysis of the results of every search.
func WithAnalysis() Option {
	return func(o *Options) { o.Analysis = true }
}
