// Package session keeps track of the logged in user, reconciling
// the locally persisted credentials with the backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/exp/slog"
)

// ErrAnonymous is returned when the operation requires a logged in user.
var ErrAnonymous = errors.New("not logged in")

//go:generate moq -out mock_backend.go . Backend

// Backend defines methods of the backend to validate credentials.
// Both methods use the token of the context.
type Backend interface {
	CurrentUser(ctx context.Context) (store.Identity, error)
	Logout(ctx context.Context) error
}

// Storage persists credentials of profiles.
type Storage interface {
	Put(ctx context.Context, profile string, creds store.Credentials) error
	Get(ctx context.Context, profile string) (store.Credentials, error)
	Delete(ctx context.Context, profile string) error
}

// Phase is a phase of the session.
type Phase int

// Phases of the session.
const (
	// PhaseAnonymous means there is no user.
	PhaseAnonymous Phase = iota
	// PhaseCached means the user is restored from the storage
	// and is not confirmed by the backend yet.
	PhaseCached
	// PhaseConfirmed means the user is confirmed by the backend or just logged in.
	PhaseConfirmed
	// PhaseInvalidated means the backend rejected the stored credentials.
	PhaseInvalidated
)

// String returns the name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseCached:
		return "cached"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseInvalidated:
		return "invalidated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the session.
// User and Token are either both set or both empty.
type State struct {
	Phase          Phase
	User           store.Identity
	Token          string
	LoadingInitial bool
}

// Authenticated returns true if the session has a user.
func (s State) Authenticated() bool {
	return (s.Phase == PhaseCached || s.Phase == PhaseConfirmed) && s.Token != ""
}

// Params defines dependencies and settings of the Session.
type Params struct {
	Profile string
	Storage Storage
	Backend Backend
	Logger  *slog.Logger

	// Retries is the number of retries of the validation after a transient failure.
	Retries       int
	RetryInterval time.Duration
	// KeepOnNetworkError keeps the cached user logged in if the backend
	// could not be reached, only the explicit rejection logs the user out.
	KeepOnNetworkError bool
}

// Session is the single source of truth of who is logged in.
type Session struct {
	Params

	mu    sync.RWMutex
	state State
	epoch uint64 // increments on every login and logout
	subs  map[uint64]func(State)
	subID uint64

	// notifyMu is taken before mu is released, so that
	// subscribers receive the states in the order of transitions
	notifyMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
	wg        sync.WaitGroup
}

// New makes a new Session in the initial loading state.
func New(p Params) *Session {
	if p.Logger == nil {
		p.Logger = slog.New(logx.NoOp())
	}
	if p.RetryInterval <= 0 {
		p.RetryInterval = 500 * time.Millisecond
	}

	return &Session{
		Params: p,
		state:  State{Phase: PhaseAnonymous, LoadingInitial: true},
		subs:   map[uint64]func(State){},
		ready:  make(chan struct{}),
	}
}

// Init restores the session from the storage. If there are credentials,
// the session becomes authenticated right away and the backend is asked
// in background whether they are still valid. Must be called once.
func (s *Session) Init(ctx context.Context) {
	creds, err := s.Storage.Get(ctx, s.Profile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.Logger.WarnCtx(ctx, "failed to read stored credentials", slog.Any("err", err))
	}

	if err != nil || creds.Empty() {
		s.transition(ctx, func(st *State) bool {
			*st = State{Phase: PhaseAnonymous}
			return true
		})
		s.markReady()
		return
	}

	var epoch uint64
	s.transition(ctx, func(st *State) bool {
		epoch = s.epoch
		*st = State{Phase: PhaseCached, User: creds.User, Token: creds.Token, LoadingInitial: true}
		return true
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.validate(ctx, epoch, creds.Token)
	}()
}

// Ready returns a channel that is closed once the initial reconciliation is over.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authorize returns a context, backend requests with which carry the token.
func (s *Session) Authorize(ctx context.Context) (context.Context, bool) {
	st := s.State()
	if !st.Authenticated() {
		return ctx, false
	}
	return backend.WithToken(ctx, st.Token), true
}

// Login sets the user as logged in. The credentials are trusted,
// as they are obtained from a successful credentials exchange.
func (s *Session) Login(ctx context.Context, user store.Identity, token string) {
	s.transition(ctx, func(st *State) bool {
		s.epoch++
		*st = State{Phase: PhaseConfirmed, User: user, Token: token, LoadingInitial: st.LoadingInitial}
		s.persist(ctx, store.Credentials{Token: token, User: user})
		return true
	})
}

// Logout forgets the user. It takes effect locally right away,
// the backend is notified in background and its failure is only logged.
func (s *Session) Logout(ctx context.Context) {
	var token string

	s.transition(ctx, func(st *State) bool {
		s.epoch++
		token = st.Token
		*st = State{Phase: PhaseAnonymous, LoadingInitial: st.LoadingInitial}
		s.forget(ctx)
		return true
	})

	if token == "" {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(logx.Detach(ctx), 10*time.Second)
		defer cancel()

		if err := s.Backend.Logout(backend.WithToken(ctx, token)); err != nil {
			s.Logger.WarnCtx(ctx, "failed to notify backend about logout", slog.Any("err", err))
		}
	}()
}

// Refresh asks the backend for the fresh profile of the user.
// If the backend rejects the credentials, the user is logged out.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	epoch, st := s.epoch, s.state
	s.mu.RUnlock()

	if !st.Authenticated() {
		return ErrAnonymous
	}

	return s.validate(ctx, epoch, st.Token)
}

// Subscribe registers a function that is called after every transition.
// The function must not log in or out synchronously.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subID++
	id := s.subID
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Wait waits for the background validation and logout notifications to finish.
func (s *Session) Wait() { s.wg.Wait() }

// validate fetches the user by the token and commits the outcome,
// unless the session was logged in or out in the meantime.
func (s *Session) validate(ctx context.Context, epoch uint64, token string) error {
	user, err := s.fetchUser(ctx, token)

	var result error
	s.transition(ctx, func(st *State) bool {
		defer s.markReady()

		if s.epoch != epoch || ctx.Err() != nil {
			validationsTotal.WithLabelValues("discarded").Inc()
			s.Logger.DebugCtx(ctx, "session validation outcome discarded", slog.Any("err", err))
			result = err
			if st.LoadingInitial {
				st.LoadingInitial = false
				return true
			}
			return false
		}

		switch {
		case err == nil:
			validationsTotal.WithLabelValues("confirmed").Inc()
			*st = State{Phase: PhaseConfirmed, User: user, Token: token}
			s.persist(ctx, store.Credentials{Token: token, User: user})
		case s.KeepOnNetworkError && transient(err):
			validationsTotal.WithLabelValues("kept").Inc()
			s.Logger.WarnCtx(ctx, "backend is unreachable, keeping cached session", slog.Any("err", err))
			st.LoadingInitial = false
			result = err
		default:
			validationsTotal.WithLabelValues("invalidated").Inc()
			s.Logger.InfoCtx(ctx, "stored session is invalid, logging out", slog.Any("err", err))
			s.epoch++
			*st = State{Phase: PhaseInvalidated}
			s.forget(ctx)
			result = err
		}
		return true
	})

	if result != nil {
		return fmt.Errorf("validate session: %w", result)
	}
	return nil
}

func (s *Session) fetchUser(ctx context.Context, token string) (store.Identity, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.RetryInterval

	var b backoff.BackOff = backoff.WithMaxRetries(bo, uint64(s.Retries))

	return backoff.RetryWithData(func() (store.Identity, error) {
		user, err := s.Backend.CurrentUser(backend.WithToken(ctx, token))
		if err != nil && !transient(err) {
			return store.Identity{}, backoff.Permanent(err)
		}
		return user, err
	}, backoff.WithContext(b, ctx))
}

// transition applies the change under the lock and notifies subscribers
// if the change reports that the state is modified.
func (s *Session) transition(ctx context.Context, change func(st *State) bool) {
	s.mu.Lock()
	if !change(&s.state) {
		s.mu.Unlock()
		return
	}

	st := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.Logger.DebugCtx(ctx, "session state changed",
		slog.String("phase", st.Phase.String()),
		slog.Bool("loading_initial", st.LoadingInitial),
	)

	for _, fn := range subs {
		fn(st)
	}
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// persist writes the credentials through to the storage,
// the in-memory state stays authoritative if it fails.
func (s *Session) persist(ctx context.Context, creds store.Credentials) {
	if err := s.Storage.Put(ctx, s.Profile, creds); err != nil {
		s.Logger.WarnCtx(ctx, "failed to persist credentials", slog.Any("err", err))
	}
}

func (s *Session) forget(ctx context.Context) {
	if err := s.Storage.Delete(ctx, s.Profile); err != nil {
		s.Logger.WarnCtx(ctx, "failed to remove stored credentials", slog.Any("err", err))
	}
}

// transient returns true if the failure may go away on retry:
// network errors and server-side failures.
func transient(err error) bool {
	if errors.Is(err, backend.ErrMalformedResponse) {
		return false
	}

	var e *backend.Error
	if !errors.As(err, &e) {
		return !errors.Is(err, context.Canceled)
	}
	return e.StatusCode >= 500
}
