// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/dashboard"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"golang.org/x/exp/slog"
)

// CommonOpts defines options shared by all commands.
type CommonOpts struct {
	StorePath string
	Profile   string

	BackendURL     string
	BackendTimeout time.Duration

	SessionRetries     int
	RetryInterval      time.Duration
	KeepOnNetworkError bool

	Out io.Writer
}

// Commander is a command that accepts common options.
type Commander interface {
	flags.Commander
	SetCommon(opts CommonOpts)
}

// SetCommon sets common options of the command.
func (c *CommonOpts) SetCommon(opts CommonOpts) {
	*c = opts
	if c.Out == nil {
		c.Out = os.Stdout
	}
}

// context returns the context of the invocation, with its own request id.
func (c *CommonOpts) context() context.Context {
	return logx.ContextWithRequestID(context.Background(), uuid.New().String())
}

func (c *CommonOpts) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.Out, format, args...)
}

// env holds dependencies of a single CLI invocation.
type env struct {
	lg      *slog.Logger
	storage *store.Bolt
	api     *backend.Client
	d       *dashboard.Dashboard
}

// open restores the dashboard of the profile and waits until
// its session is reconciled with the backend.
func (c *CommonOpts) open(ctx context.Context, opts ...search.Option) (*env, error) {
	lg := slog.Default()

	stg, err := store.NewBolt(c.StorePath)
	if err != nil {
		return nil, fmt.Errorf("make store: %w", err)
	}

	api := backend.NewClient(
		lg.With(slog.String("prefix", "backend")),
		http.Client{Timeout: c.BackendTimeout},
		c.BackendURL,
	)

	d := dashboard.New(ctx, dashboard.Params{
		Profile:            c.Profile,
		Backend:            api,
		Storage:            stg,
		Logger:             lg.With(slog.String("prefix", "dashboard")),
		SessionRetries:     c.SessionRetries,
		RetryInterval:      c.RetryInterval,
		KeepOnNetworkError: c.KeepOnNetworkError,
		SearchOptions:      opts,
	})

	select {
	case <-ctx.Done():
		d.Close()
		_ = stg.Close()
		return nil, fmt.Errorf("wait for session: %w", ctx.Err())
	case <-d.Session.Ready():
	}

	return &env{lg: lg, storage: stg, api: api, d: d}, nil
}

func (e *env) close() {
	e.d.Close()
	if err := e.storage.Close(); err != nil {
		e.lg.Error("close bolt store", slog.Any("err", err))
	}
}
