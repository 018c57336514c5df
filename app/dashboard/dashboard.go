// Package dashboard composes the session, history and search of a single user.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/history"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	"golang.org/x/exp/slog"
)

// ErrUnknownEntry is returned when the history entry is not among the loaded ones.
var ErrUnknownEntry = errors.New("unknown history entry")

// Backend defines all methods of the backend the dashboard uses.
type Backend interface {
	session.Backend
	history.Backend
	search.Backend
	Signup(ctx context.Context, req backend.SignupRequest) (store.Identity, error)
	Login(ctx context.Context, email, password string) (store.Credentials, error)
}

// Params defines dependencies and settings of the Dashboard.
type Params struct {
	Profile string
	Backend Backend
	Storage session.Storage
	Logger  *slog.Logger

	SessionRetries     int
	RetryInterval      time.Duration
	KeepOnNetworkError bool

	HistoryPageSize int
	SearchOptions   []search.Option
}

// Dashboard is everything a single user sees.
type Dashboard struct {
	Session *session.Session
	History *history.Store
	Search  *search.Controller

	api       Backend
	log       *slog.Logger
	closeOnce sync.Once
}

// New makes a new Dashboard and starts restoring its session.
func New(ctx context.Context, p Params) *Dashboard {
	if p.Logger == nil {
		p.Logger = slog.New(logx.NoOp())
	}
	lg := p.Logger.With(slog.String("profile", p.Profile))

	sess := session.New(session.Params{
		Profile:            p.Profile,
		Storage:            p.Storage,
		Backend:            p.Backend,
		Logger:             lg,
		Retries:            p.SessionRetries,
		RetryInterval:      p.RetryInterval,
		KeepOnNetworkError: p.KeepOnNetworkError,
	})

	hist := history.New(lg, p.Backend, sess, p.HistoryPageSize)

	opts := append([]search.Option{
		search.WithLogger(lg),
		search.WithHistory(sess, hist),
	}, p.SearchOptions...)

	d := &Dashboard{
		Session: sess,
		History: hist,
		Search:  search.NewController(p.Backend, opts...),
		api:     p.Backend,
		log:     lg,
	}

	sess.Init(ctx)
	return d
}

// Signup registers a new user. The user has to log in afterwards.
func (d *Dashboard) Signup(ctx context.Context, req backend.SignupRequest) (store.Identity, error) {
	u, err := d.api.Signup(ctx, req)
	if err != nil {
		return store.Identity{}, fmt.Errorf("sign up %s: %w", req.Email, err)
	}

	d.log.InfoCtx(ctx, "signed up", slog.Int64("user_id", u.ID))
	return u, nil
}

// Login exchanges the email and password to the session.
// On failure the session stays as it was.
func (d *Dashboard) Login(ctx context.Context, email, password string) (store.Identity, error) {
	creds, err := d.api.Login(ctx, email, password)
	if err != nil {
		return store.Identity{}, fmt.Errorf("log in %s: %w", email, err)
	}

	d.Session.Login(ctx, creds.User, creds.Token)
	d.log.InfoCtx(ctx, "logged in", slog.Int64("user_id", creds.User.ID))
	return creds.User, nil
}

// Logout forgets the user.
func (d *Dashboard) Logout(ctx context.Context) {
	d.Session.Logout(ctx)
}

// Again repeats the search from the history.
func (d *Dashboard) Again(ctx context.Context, id int64) (search.State, error) {
	entry, ok := d.History.Get(id)
	if !ok {
		if _, err := d.History.Load(ctx); err != nil {
			return search.State{}, fmt.Errorf("load history: %w", err)
		}
		if entry, ok = d.History.Get(id); !ok {
			return search.State{}, ErrUnknownEntry
		}
	}

	return d.Search.Search(ctx, entry.Query()), nil
}

// Close waits for background operations and unbinds the history.
// It is safe to call Close more than once.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		d.Search.Wait()
		d.Session.Wait()
		d.History.Close()
	})
}
