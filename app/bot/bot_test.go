package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/dashboard"
	"github.com/Semior001/briefly/app/revisor"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/botx"
	"github.com/Semior001/briefly/pkg/logx"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const testToken = "tkn"

var testUser = store.Identity{ID: 7, Email: "a@b.c", Username: "neo_one"}

func newBackend(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	var mu sync.Mutex
	var history []store.HistoryEntry

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": testToken, "user": testUser})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(testUser)
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/news/search", func(w http.ResponseWriter, r *http.Request) {
		size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
		require.NoError(t, err)

		const total = 8
		articles := make([]store.Article, 0, size)
		for i := 0; i < size && i < total; i++ {
			articles = append(articles, store.Article{
				Title: r.URL.Query().Get("keyword") + " news " + strconv.Itoa(i),
				URL:   "https://example.com/" + strconv.Itoa(i),
			})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"total": total, "articles": articles},
		})
	})

	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

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
	return ts
}

type fakeAPI struct {
	mu   sync.Mutex
	sent []botx.Response
}

func (f *fakeAPI) Updates() <-chan botx.Request { return nil }

func (f *fakeAPI) SendMessage(_ context.Context, resp botx.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, resp)
	return nil
}

type fakeBriefer struct {
	err error
}

func (f fakeBriefer) Brief(_ context.Context, a store.Article, lang store.Language) (store.Brief, error) {
	if f.err != nil {
		return store.Brief{}, f.err
	}
	return store.Brief{URL: a.URL, Title: a.Title, BulletPoints: "- point in " + string(lang)}, nil
}

func (f fakeBriefer) GPTCacheStat() cache.Stats { return cache.Stats{Hits: 3} }

func prepCtrl(t *testing.T, briefer Briefer) (*Ctrl, *fakeAPI) {
	t.Helper()

	ts := newBackend(t)
	api := backend.NewClient(slog.New(logx.NoOp()), http.Client{Timeout: 5 * time.Second}, ts.URL)

	stg, err := store.NewBolt(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stg.Close() })

	tg := &fakeAPI{}
	c := &Ctrl{
		Logger:         slog.New(logx.NoOp()),
		Revisor:        briefer,
		API:            tg,
		AdminIDs:       []string{"1"},
		HandlerTimeout: 10 * time.Second,
	}

	c.Dashboards = NewDashboards(time.Hour, 10, func(ctx context.Context, chatID string) *dashboard.Dashboard {
		return dashboard.New(ctx, dashboard.Params{
			Profile: chatID,
			Backend: api,
			Storage: stg,
		})
	})
	t.Cleanup(c.Dashboards.Close)

	return c, tg
}

func send(t *testing.T, h botx.Handler, text string) []botx.Response {
	t.Helper()
	resps, err := h(context.Background(), botx.Request{MessageID: "10", Chat: botx.Chat{ID: "42"}, Text: text})
	require.NoError(t, err)
	require.NotEmpty(t, resps)
	return resps
}

func TestCtrl_SearchFlow(t *testing.T) {
	c, _ := prepCtrl(t, nil)
	h := c.Routes().Handle

	resps := send(t, h, "/search golang country=us")
	require.Len(t, resps, 1)
	assert.Equal(t, "42", resps[0].ChatID)
	assert.Equal(t, "10", resps[0].ReplyToMessageID)
	assert.Contains(t, resps[0].Text, `*Results for "golang"* (5 of 8)`)
	assert.Contains(t, resps[0].Text, "5. [golang news 4](https://example.com/4)")
	assert.Contains(t, resps[0].Text, "Send /more")

	resps = send(t, h, "/more")
	assert.Contains(t, resps[0].Text, "(8 of 8)")
	assert.NotContains(t, resps[0].Text, "Send /more")

	resps = send(t, h, "/search country=mars")
	assert.Contains(t, resps[0].Text, "Invalid query")
}

func TestCtrl_MoreWithoutSearch(t *testing.T) {
	c, _ := prepCtrl(t, nil)
	resps := send(t, c.Routes().Handle, "/more")
	assert.Equal(t, "Nothing to expand, /search first.", resps[0].Text)
}

func TestCtrl_Auth(t *testing.T) {
	c, _ := prepCtrl(t, nil)
	h := c.Routes().Handle

	resps := send(t, h, "/whoami")
	assert.Contains(t, resps[0].Text, "not logged in")

	resps = send(t, h, "/history")
	assert.Equal(t, "Please /login to see your history.", resps[0].Text)

	resps = send(t, h, "/login a@b.c wrong")
	assert.Equal(t, "Failed to log in: Incorrect email or password", resps[0].Text)

	resps = send(t, h, "/login a@b.c")
	assert.Contains(t, resps[0].Text, "Usage")

	resps = send(t, h, "/login a@b.c secret")
	assert.Contains(t, resps[0].Text, `Logged in as *neo\_one*`)

	resps = send(t, h, "/whoami")
	assert.Equal(t, `You are *neo\_one* (a@b.c).`, resps[0].Text)

	send(t, h, "/search golang")

	resps = send(t, h, "/history")
	assert.Contains(t, resps[0].Text, "#1 golang · 8 results · 2024-05-01")

	resps = send(t, h, "/again 1")
	assert.Contains(t, resps[0].Text, `*Results for "golang"*`)

	resps = send(t, h, "/again 100")
	assert.Equal(t, "There is no search #100 in your recent history.", resps[0].Text)

	resps = send(t, h, "/forget 1")
	assert.Equal(t, "Asked to forget search #1.", resps[0].Text)

	resps = send(t, h, "/history")
	assert.Contains(t, resps[0].Text, "#1 golang", "failed removal keeps the entry")

	resps = send(t, h, "/forget_all")
	assert.Equal(t, "Asked to clear your search history.", resps[0].Text)

	resps = send(t, h, "/history")
	assert.NotContains(t, resps[0].Text, "#1 golang")

	resps = send(t, h, "/logout")
	assert.Equal(t, "Logged out.", resps[0].Text)

	resps = send(t, h, "/logout")
	assert.Equal(t, "You are not logged in.", resps[0].Text)

	resps = send(t, h, "/forget 1")
	assert.Equal(t, "Please /login to manage your history.", resps[0].Text)
}

func TestCtrl_Brief(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, _ := prepCtrl(t, nil)
		resps := send(t, c.Routes().Handle, "/brief 1")
		assert.Equal(t, "Briefs are turned off.", resps[0].Text)
	})

	t.Run("no search", func(t *testing.T) {
		c, _ := prepCtrl(t, fakeBriefer{})
		resps := send(t, c.Routes().Handle, "/brief 1")
		assert.Equal(t, "Nothing to brief, /search first.", resps[0].Text)
	})

	t.Run("success", func(t *testing.T) {
		c, tg := prepCtrl(t, fakeBriefer{})
		h := c.Routes().Handle

		send(t, h, "/search golang lang=ja")

		resps := send(t, h, "/brief 9")
		assert.Equal(t, "Usage: /brief <n>, where n is from 1 to 5.", resps[0].Text)

		resps = send(t, h, "/brief 2")
		assert.Contains(t, resps[0].Text, "*golang news 1*")
		assert.Contains(t, resps[0].Text, "- point in ja")
		assert.Contains(t, resps[0].Text, "[source](https://example.com/1)")

		require.Len(t, tg.sent, 1)
		assert.Equal(t, "I'm working on it, please wait...", tg.sent[0].Text)
	})

	t.Run("too long", func(t *testing.T) {
		c, _ := prepCtrl(t, fakeBriefer{err: revisor.ErrTooManyTokens})
		h := c.Routes().Handle

		send(t, h, "/search golang")
		resps := send(t, h, "/brief 1")
		assert.Equal(t, "The article is too long, I can't brief it.", resps[0].Text)
	})

	t.Run("failure", func(t *testing.T) {
		c, _ := prepCtrl(t, fakeBriefer{err: errors.New("openai is down")})
		h := c.Routes().Handle

		send(t, h, "/search golang")
		resps, err := h(context.Background(), botx.Request{Chat: botx.Chat{ID: "42"}, Text: "/brief 1"})
		require.Error(t, err)
		require.Len(t, resps, 1)
		assert.Contains(t, resps[0].Text, "Something went wrong")
	})
}

func TestCtrl_Stats(t *testing.T) {
	c, _ := prepCtrl(t, fakeBriefer{})
	h := c.Routes().Handle

	resps, err := h(context.Background(), botx.Request{Chat: botx.Chat{ID: "42"}, Text: "/stats"})
	require.NoError(t, err)
	assert.Empty(t, resps, "not an admin")

	resps = send(t, h, "/start")
	assert.Equal(t, helpText, resps[0].Text)

	send(t, h, "/whoami")

	resps, err = h(context.Background(), botx.Request{Chat: botx.Chat{ID: "1"}, Text: "/stats"})
	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.Contains(t, resps[0].Text, "active chats: 1")
	assert.Contains(t, resps[0].Text, "gpt cache: hits: 3")
}

func TestRenderResults(t *testing.T) {
	text, err := renderResults(search.State{Error: search.MsgTimedOut})
	require.NoError(t, err)
	assert.Equal(t, "⚠️ "+search.MsgTimedOut, text)

	text, err = renderResults(search.State{Query: store.DefaultQuery("")})
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", text)

	text, err = renderResults(search.State{
		Query:          store.DefaultQuery(""),
		TotalAvailable: 1,
		Articles: []store.Article{{
			Title:           "원문",
			TranslatedTitle: "[Breaking] *news*",
			URL:             "https://example.com",
			Source:          store.Source{Name: "yonhap_news"},
			Summary:         "short",
		}},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "*Top headlines* (1 of 1)")
	assert.Contains(t, text, `1. [\[Breaking] \*news\*](https://example.com) · _yonhap\_news_`)
	assert.Contains(t, text, "\nshort\n")
	assert.NotContains(t, text, "/more")
}

func TestRenderKeywords(t *testing.T) {
	assert.Equal(t, `*Top keywords:* ai (3), big\_tech (2)`, renderKeywords(store.Analysis{
		Keywords: []store.Keyword{{Word: "ai", Count: 3}, {Word: "big_tech", Count: 2}},
	}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abc", 2))
	assert.Equal(t, "안녕…", truncate("안녕하세요", 2))
}

func TestCtrl_NotifyAdmins(t *testing.T) {
	c, tg := prepCtrl(t, nil)
	c.AdminIDs = []string{"1", "2"}

	require.NoError(t, c.NotifyAdmins(context.Background(), "bot started"))
	require.Len(t, tg.sent, 2)
	assert.Equal(t, "1", tg.sent[0].ChatID)
	assert.Equal(t, "2", tg.sent[1].ChatID)
}

func TestCtrl_NotifyInvalidated(t *testing.T) {
	c, tg := prepCtrl(t, nil)
	notify := c.NotifyInvalidated(context.Background(), "42")

	notify(session.State{Phase: session.PhaseConfirmed})
	assert.Empty(t, tg.sent)

	notify(session.State{Phase: session.PhaseInvalidated})
	require.Len(t, tg.sent, 1)
	assert.Equal(t, "42", tg.sent[0].ChatID)
	assert.Contains(t, tg.sent[0].Text, "/login")
}
