package botx

import "golang.org/x/exp/slog"

// Options defines options for Bot.
type Options struct {
	Workers int
	// QueueSize is the number of pending updates per worker.
	QueueSize int
	Logger    *slog.Logger
}

// Option defines a function that configures Bot.
type Option func(*Options)

// WithWorkers sets the number of workers to run.
func WithWorkers(workers int) Option {
	return func(o *Options) {
		if workers > 0 {
			o.Workers = workers
		}
	}
}

// WithQueueSize sets the number of updates a worker may have pending.
func WithQueueSize(size int) Option {
	return func(o *Options) {
		if size >= 0 {
			o.QueueSize = size
		}
	}
}

// WithLogger sets the logger to use.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
