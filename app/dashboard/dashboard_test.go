package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const testToken = "tkn"

var testUser = store.Identity{ID: 1, Email: "a@b.c", Username: "abc"}

// fakeBackend keeps the history of a single user in memory.
type fakeBackend struct {
	mu       sync.Mutex
	history  []store.HistoryEntry
	nextID   int64
	searches []string
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return false
		}
		return true
	}

	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(testUser)
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": testToken, "token_type": "bearer", "user": testUser})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_ = json.NewEncoder(w).Encode(testUser)
		}
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/news/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.searches = append(f.searches, r.URL.RawQuery)
		f.mu.Unlock()

		size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
		require.NoError(t, err)

		const total = 7
		articles := make([]store.Article, 0, size)
		for i := 0; i < size && i < total; i++ {
			articles = append(articles, store.Article{Title: r.URL.Query().Get("keyword") + strconv.Itoa(i)})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"total": total, "articles": articles},
		})
	})

	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.history)
		case r.Method == http.MethodPost:
			var req backend.HistoryRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.nextID++
			entry := store.HistoryEntry{
				ID:           f.nextID,
				Keyword:      req.Keyword,
				FromDate:     req.FromDate,
				ToDate:       req.ToDate,
				ResultsCount: req.ResultsCount,
				SearchedAt:   store.Time{Time: time.Now().UTC()},
			}
			f.history = append([]store.HistoryEntry{entry}, f.history...)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(entry)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/history/":
			f.history = nil
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/history/"), 10, 64)
			require.NoError(t, err)
			for i, e := range f.history {
				if e.ID == id {
					f.history = append(f.history[:i], f.history[i+1:]...)
					break
				}
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})

	return mux
}

type env struct {
	fake    *fakeBackend
	api     *backend.Client
	storage *store.Bolt
}

func prepEnv(t *testing.T) env {
	t.Helper()

	fake := &fakeBackend{}
	ts := httptest.NewServer(fake.handler(t))
	t.Cleanup(ts.Close)

	stg, err := store.NewBolt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stg.Close() })

	return env{
		fake:    fake,
		api:     backend.NewClient(slog.New(logx.NoOp()), http.Client{Timeout: 5 * time.Second}, ts.URL),
		storage: stg,
	}
}

func (e env) dashboard(t *testing.T) *Dashboard {
	t.Helper()

	d := New(context.Background(), Params{
		Profile: "42",
		Backend: e.api,
		Storage: e.storage,
	})
	t.Cleanup(d.Close)

	select {
	case <-d.Session.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("session is not ready")
	}

	return d
}

func TestDashboard_Flow(t *testing.T) {
	e := prepEnv(t)
	d := e.dashboard(t)
	ctx := context.Background()

	require.Equal(t, session.PhaseAnonymous, d.Session.State().Phase)

	// anonymous search is not remembered
	st := d.Search.Search(ctx, store.DefaultQuery("AI"))
	require.Empty(t, st.Error)
	assert.Len(t, st.Articles, 5)
	d.Search.Wait()
	assert.Empty(t, e.fake.history)

	_, err := d.Signup(ctx, backend.SignupRequest{Email: "a@b.c", Username: "abc", Password: "secret"})
	require.NoError(t, err)
	assert.False(t, d.Session.State().Authenticated(), "sign up doesn't log in")

	u, err := d.Login(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, u.ID)
	assert.True(t, d.Session.State().Authenticated())

	st = d.Search.Search(ctx, store.DefaultQuery("Go"))
	require.Empty(t, st.Error)
	st = d.Search.LoadMore(ctx)
	assert.Len(t, st.Articles, 7)
	assert.False(t, st.HasMore())
	d.Search.Wait()

	entries, err := d.History.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Go", entries[0].Keyword)
	assert.Equal(t, 7, entries[0].ResultsCount)

	st, err = d.Again(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", st.Query.Keyword)
	assert.Equal(t, search.DefaultPageSize, st.RequestedCount)
	d.Search.Wait()

	_, err = d.Again(ctx, 100500)
	assert.ErrorIs(t, err, ErrUnknownEntry)

	d.Logout(ctx)
	assert.False(t, d.Session.State().Authenticated())
	assert.Empty(t, d.History.Entries())

	_, err = e.storage.Get(ctx, "42")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = d.History.Load(ctx)
	assert.ErrorIs(t, err, session.ErrAnonymous)
}

func TestDashboard_LoginFailure(t *testing.T) {
	e := prepEnv(t)
	d := e.dashboard(t)

	_, err := d.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	msg, ok := backend.Message(err)
	assert.True(t, ok)
	assert.Equal(t, "Incorrect email or password", msg)
	assert.False(t, d.Session.State().Authenticated())
}

func TestDashboard_Rehydrate(t *testing.T) {
	e := prepEnv(t)
	ctx := context.Background()

	first := e.dashboard(t)
	_, err := first.Login(ctx, "a@b.c", "secret")
	require.NoError(t, err)

	second := e.dashboard(t)
	second.Session.Wait()

	st := second.Session.State()
	assert.Equal(t, session.PhaseConfirmed, st.Phase)
	assert.Equal(t, testUser, st.User)

	require.NoError(t, e.storage.Put(ctx, "42", store.Credentials{Token: "revoked", User: testUser}))

	third := e.dashboard(t)
	third.Session.Wait()
	assert.Equal(t, session.PhaseInvalidated, third.Session.State().Phase)

	_, err = e.storage.Get(ctx, "42")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
