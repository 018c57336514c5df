package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "tkn"

func newBackend(t *testing.T) (*httptest.Server, *[]string) {
	mux := http.NewServeMux()

	var mu sync.Mutex
	var history []store.HistoryEntry
	var queries []string

	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req backend.SignupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(store.Identity{ID: 1, Email: req.Email, Username: req.Username})
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": testToken,
			"user":         store.Identity{ID: 1, Email: "a@b.c", Username: "abc"},
		})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(store.Identity{ID: 1, Email: "a@b.c", Username: "abc"})
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/news/search", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()

		size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
		require.NoError(t, err)

		const total = 12
		articles := make([]store.Article, 0, size)
		for i := 0; i < size && i < total; i++ {
			articles = append(articles, store.Article{Title: "title " + strconv.Itoa(i), URL: "https://example.com"})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"total": total, "articles": articles},
		})
	})

	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(history)
		case r.Method == http.MethodPost:
			var req backend.HistoryRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			entry := store.HistoryEntry{
				ID:           int64(len(history) + 1),
				Keyword:      req.Keyword,
				FromDate:     req.FromDate,
				ToDate:       req.ToDate,
				ResultsCount: req.ResultsCount,
				SearchedAt:   store.Time{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
			}
			history = append([]store.HistoryEntry{entry}, history...)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(entry)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/history/":
			history = nil
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &queries
}

func common(t *testing.T, url, dir string) (CommonOpts, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return CommonOpts{
		StorePath:      dir,
		Profile:        "default",
		BackendURL:     url,
		BackendTimeout: 5 * time.Second,
		RetryInterval:  time.Millisecond,
		Out:            out,
	}, out
}

func TestCommands(t *testing.T) {
	ts, queries := newBackend(t)
	dir := t.TempDir()

	run := func(c Commander) string {
		t.Helper()
		opts, out := common(t, ts.URL, dir)
		c.SetCommon(opts)
		require.NoError(t, c.Execute(nil))
		return out.String()
	}

	assert.Equal(t, "not logged in\n", run(&Whoami{}))

	err := func() error {
		h := &History{}
		opts, _ := common(t, ts.URL, dir)
		h.SetCommon(opts)
		return h.Execute(nil)
	}()
	assert.ErrorIs(t, err, session.ErrAnonymous)

	assert.Equal(t, "signed up as abc (id 1), now log in\n",
		run(&Signup{Email: "a@b.c", Username: "abc", Password: "secret"}))

	assert.Equal(t, "logged in as abc <a@b.c>\n", run(&Login{Email: "a@b.c", Password: "secret"}))

	// the session survives between invocations
	assert.Equal(t, "abc <a@b.c>\n", run(&Whoami{}))

	s := &Search{Country: "all", Language: "en", From: "2024-05-01", To: "2024-05-03", More: 1}
	s.Args.Keyword = []string{"AI", "chips"}
	out := run(s)
	assert.Contains(t, out, "10 of 12 articles")
	assert.Contains(t, out, "10. title 9")

	require.Len(t, *queries, 2)
	assert.Contains(t, (*queries)[0], "page_size=5")
	assert.Contains(t, (*queries)[0], "from_date=2024-05-01")
	assert.Contains(t, (*queries)[1], "page_size=10")

	assert.Equal(t, "#1\t2024-05-01\tAI chips\t2024-05-01..2024-05-03\t12 results\n", run(&History{}))
	assert.Equal(t, "requested to delete entry #1\n", run(&History{Delete: 1}))
	assert.Contains(t, run(&History{}), "#1\t", "failed removal keeps the entry")
	assert.Equal(t, "requested to clear history\n", run(&History{Clear: true}))
	assert.Equal(t, "history is empty\n", run(&History{}))

	assert.Equal(t, "logged out\n", run(&Logout{}))
	assert.Equal(t, "not logged in\n", run(&Whoami{}))
	assert.Equal(t, "not logged in\n", run(&Logout{}))
}

func TestSearch_LoadMoreFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_size") != "5" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{"total": 12, "articles": []store.Article{
				{Title: "first", URL: "https://example.com/1"},
				{Title: "second", URL: "https://example.com/2"},
			}},
		})
	}))
	defer ts.Close()

	opts, out := common(t, ts.URL, t.TempDir())
	s := &Search{Country: "kr", Language: "ko", More: 1}
	s.SetCommon(opts)

	err := s.Execute(nil)
	require.Error(t, err)
	assert.Equal(t, search.MsgLoadMoreFailed, err.Error())
	assert.Contains(t, out.String(), "2 of 12 articles")
	assert.Contains(t, out.String(), "2. second")
}

func TestSearch_Query(t *testing.T) {
	tests := []struct {
		name    string
		s       Search
		want    store.Query
		wantErr bool
	}{
		{
			name: "defaults",
			s:    Search{Country: "kr", Language: "ko"},
			want: store.DefaultQuery(""),
		},
		{
			name: "worldwide",
			s:    Search{Country: "ALL", Language: "none", From: "2024-05-01", GPT: true},
			want: store.Query{
				Country:            store.CountryAll,
				TranslateLanguage:  store.LanguageNone,
				FromDate:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				UseAdvancedSummary: true,
			},
		},
		{name: "bad country", s: Search{Country: "xx", Language: "ko"}, wantErr: true},
		{name: "bad language", s: Search{Country: "kr", Language: "xx"}, wantErr: true},
		{name: "bad date", s: Search{Country: "kr", Language: "ko", To: "tomorrow"}, wantErr: true},
		{
			name:    "reversed range",
			s:       Search{Country: "all", Language: "ko", From: "2024-05-03", To: "2024-05-01"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.s.query()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}
