// Package history keeps past searches of the logged in user.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// DefaultPageSize is the number of entries loaded by default.
const DefaultPageSize = 10

//go:generate moq -out mock_backend.go . Backend

// Backend defines history methods of the backend.
// All of them are scoped to the user of the token in the context.
type Backend interface {
	ListHistory(ctx context.Context, skip, limit int) ([]store.HistoryEntry, error)
	CreateHistory(ctx context.Context, req backend.HistoryRequest) (store.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id int64) error
	ClearHistory(ctx context.Context) error
}

// Session is a source of the authentication state.
type Session interface {
	Authorize(ctx context.Context) (context.Context, bool)
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// Store lists and manages the history. Its content is derived from the
// session: once the user logs out or changes, the entries are dropped.
// Writing operations are best-effort, their failures are only logged.
type Store struct {
	log      *slog.Logger
	api      Backend
	sess     Session
	pageSize int

	mu      sync.RWMutex
	entries []store.HistoryEntry
	userID  int64
	epoch   uint64 // increments every time entries are dropped

	unsubscribe func()
}

// New makes a new Store and binds it to the session.
func New(lg *slog.Logger, api Backend, sess Session, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s := &Store{log: lg, api: api, sess: sess, pageSize: pageSize}
	s.unsubscribe = sess.Subscribe(s.onSession)
	return s
}

// Close unbinds the store from the session.
func (s *Store) Close() { s.unsubscribe() }

func (s *Store) onSession(st session.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Authenticated() && st.User.ID == s.userID {
		return
	}

	s.entries = nil
	s.userID = st.User.ID
	s.epoch++
}

// Entries returns the loaded entries, newest first.
func (s *Store) Entries() []store.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.HistoryEntry(nil), s.entries...)
}

// Get returns the loaded entry by its id.
func (s *Store) Get(id int64) (store.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.entries, func(e store.HistoryEntry) bool { return e.ID == id })
}

// Load fetches the latest entries.
func (s *Store) Load(ctx context.Context) ([]store.HistoryEntry, error) {
	ctx, ok := s.sess.Authorize(ctx)
	if !ok {
		return nil, session.ErrAnonymous
	}

	epoch := s.currentEpoch()

	entries, err := s.api.ListHistory(ctx, 0, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		// the user has changed while the list was loading
		return nil, session.ErrAnonymous
	}

	s.entries = entries
	return append([]store.HistoryEntry(nil), entries...), nil
}

// Record remembers the search of the logged in user.
// It does nothing for an anonymous session.
func (s *Store) Record(ctx context.Context, q store.Query, resultsCount int) {
	ctx, ok := s.sess.Authorize(ctx)
	if !ok {
		return
	}

	epoch := s.currentEpoch()

	from, to := q.DateRange()
	entry, err := s.api.CreateHistory(ctx, backend.HistoryRequest{
		Keyword:      q.Keyword,
		FromDate:     from,
		ToDate:       to,
		ResultsCount: resultsCount,
	})
	if err != nil {
		s.log.WarnCtx(ctx, "failed to record search history",
			slog.String("keyword", q.Keyword), slog.Any("err", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.entries == nil {
		return
	}

	s.entries = append([]store.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.pageSize {
		s.entries = s.entries[:s.pageSize]
	}
}

// Delete removes a single entry.
func (s *Store) Delete(ctx context.Context, id int64) {
	ctx, ok := s.sess.Authorize(ctx)
	if !ok {
		return
	}

	if err := s.api.DeleteHistory(ctx, id); err != nil {
		s.log.WarnCtx(ctx, "failed to delete history entry", slog.Int64("id", id), slog.Any("err", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = lo.Reject(s.entries, func(e store.HistoryEntry, _ int) bool { return e.ID == id })
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) {
	ctx, ok := s.sess.Authorize(ctx)
	if !ok {
		return
	}

	if err := s.api.ClearHistory(ctx); err != nil {
		s.log.WarnCtx(ctx, "failed to clear history", slog.Any("err", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries != nil {
		s.entries = []store.HistoryEntry{}
	}
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
