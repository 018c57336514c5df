// Package bot contains routers and controllers for bots.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/dashboard"
	"github.com/Semior001/briefly/app/revisor"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/botx"
	"github.com/Semior001/briefly/pkg/botx/botmw"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"golang.org/x/exp/slog"
)

// Briefer makes briefs of the articles.
type Briefer interface {
	Brief(ctx context.Context, article store.Article, lang store.Language) (store.Brief, error)
	GPTCacheStat() cache.Stats
}

// Ctrl provides routes and controllers for bot updates.
type Ctrl struct {
	Logger         *slog.Logger
	Dashboards     *Dashboards
	Revisor        Briefer // nil disables briefs
	API            botx.API
	AdminIDs       []string
	HandlerTimeout time.Duration
}

// Routes returns a multiplexer for bot controllers.
func (c *Ctrl) Routes() *botx.Router {
	rtr := botx.NewRouter()

	rtr.Use(
		botmw.RequestID(),
		botmw.AppendRequestIDOnError(),
		botmw.Logger(c.Logger, "/login", "/signup"),
		botmw.Timeout(c.HandlerTimeout),
		botmw.Recover(c.Logger),
	)

	rtr.NotFound(c.start)
	rtr.Add("/start", c.start)
	rtr.Add("/help", c.start)
	rtr.Add("/signup", c.signup)
	rtr.Add("/login", c.login)
	rtr.Add("/logout", c.logout)
	rtr.Add("/whoami", c.whoami)
	rtr.Add("/search", c.search)
	rtr.Add("/more", c.more)
	rtr.Add("/brief", c.brief)
	rtr.Add("/history", c.history)
	rtr.Add("/again", c.again)
	rtr.Add("/forget", c.forget)
	rtr.Add("/forget_all", c.forgetAll)

	rtr.Group(func(rtr *botx.Router) {
		rtr.Use(botmw.AdminOnly(c.AdminIDs))

		rtr.Add("/stats", c.stats)
	})

	return rtr
}

// NotifyInvalidated returns a session subscriber that tells the chat
// its stored credentials were rejected.
func (c *Ctrl) NotifyInvalidated(ctx context.Context, chatID string) func(session.State) {
	return func(st session.State) {
		if st.Phase != session.PhaseInvalidated {
			return
		}

		err := c.API.SendMessage(ctx, botx.Response{
			ChatID: chatID,
			Text:   "Your session has expired, please /login again.",
		})
		if err != nil {
			c.Logger.WarnCtx(ctx, "failed to notify about expired session",
				slog.String("chat_id", chatID), slog.Any("err", err))
		}
	}
}

// NotifyAdmins sends a message to all admins.
func (c *Ctrl) NotifyAdmins(ctx context.Context, msg string) error {
	for _, adminID := range c.AdminIDs {
		if err := c.API.SendMessage(ctx, botx.Response{ChatID: adminID, Text: msg}); err != nil {
			return fmt.Errorf("send message to admin %s: %w", adminID, err)
		}
	}

	return nil
}

func (c *Ctrl) start(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return []botx.Response{{ChatID: req.Chat.ID, Text: helpText}}, nil
}

func (c *Ctrl) signup(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	args := req.Args()
	if len(args) != 3 {
		return reply(req, "Usage: /signup <email> <username> <password>"), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	u, err := d.Signup(ctx, backend.SignupRequest{Email: args[0], Username: args[1], Password: args[2]})
	if err != nil {
		return reply(req, failure("Failed to sign up", err)), nil
	}

	return reply(req, fmt.Sprintf("Welcome, %s! Now /login with your email and password.",
		escapeMarkdown(u.Username))), nil
}

func (c *Ctrl) login(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	args := req.Args()
	if len(args) != 2 {
		return reply(req, "Usage: /login <email> <password>"), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	u, err := d.Login(ctx, args[0], args[1])
	if err != nil {
		return reply(req, failure("Failed to log in", err)), nil
	}

	return reply(req, fmt.Sprintf("Logged in as *%s*, your searches are saved to /history now.",
		escapeMarkdown(u.Username))), nil
}

func (c *Ctrl) logout(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if !d.Session.State().Authenticated() {
		return reply(req, "You are not logged in."), nil
	}

	d.Logout(ctx)
	return reply(req, "Logged out."), nil
}

func (c *Ctrl) whoami(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if d.Session.State().Authenticated() {
		if err = d.Session.Refresh(ctx); err != nil {
			c.Logger.WarnCtx(ctx, "failed to refresh session", slog.Any("err", err))
		}
	}

	st := d.Session.State()
	switch st.Phase {
	case session.PhaseConfirmed:
		return reply(req, fmt.Sprintf("You are *%s* (%s).",
			escapeMarkdown(st.User.Username), escapeMarkdown(st.User.Email))), nil
	case session.PhaseCached:
		return reply(req, fmt.Sprintf("You are *%s* (%s), the session is not confirmed yet.",
			escapeMarkdown(st.User.Username), escapeMarkdown(st.User.Email))), nil
	case session.PhaseInvalidated:
		return reply(req, "Your session has expired, please /login again."), nil
	default:
		return reply(req, "You are not logged in, /login to keep your search history."), nil
	}
}

func (c *Ctrl) search(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	q, err := parseQuery(req.Args())
	if err != nil {
		return reply(req, "Invalid query: "+escapeMarkdown(err.Error())), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	d.Search.Search(ctx, q)
	return c.results(ctx, req, d)
}

func (c *Ctrl) more(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(d.Search.State().Articles) == 0 {
		return reply(req, "Nothing to expand, /search first."), nil
	}

	st := d.Search.LoadMore(ctx)
	if st.Error != "" {
		return reply(req, "⚠️ "+escapeMarkdown(st.Error)), nil
	}

	text, err := renderResults(st)
	if err != nil {
		return nil, fmt.Errorf("render results: %w", err)
	}

	return reply(req, text), nil
}

func (c *Ctrl) again(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	id, ok := parseID(req.Args())
	if !ok {
		return reply(req, "Usage: /again <id>, see /history for ids."), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err = d.Again(ctx, id); err != nil {
		switch {
		case errors.Is(err, session.ErrAnonymous):
			return reply(req, "Please /login to see your history."), nil
		case errors.Is(err, dashboard.ErrUnknownEntry):
			return reply(req, fmt.Sprintf("There is no search #%d in your recent history.", id)), nil
		default:
			return reply(req, failure("Failed to load history", err)), nil
		}
	}

	return c.results(ctx, req, d)
}

// results renders the state of the last search, after its analysis completes.
func (c *Ctrl) results(ctx context.Context, req botx.Request, d *dashboard.Dashboard) ([]botx.Response, error) {
	d.Search.Wait()
	st := d.Search.State()

	text, err := renderResults(st)
	if err != nil {
		return nil, fmt.Errorf("render results: %w", err)
	}

	resps := reply(req, text)
	if st.Error != "" || st.Analysis.Empty() {
		return resps, nil
	}

	c.Logger.DebugCtx(ctx, "attaching analysis",
		slog.Int("keywords", len(st.Analysis.Keywords)),
		slog.Bool("word_cloud", st.Analysis.WordCloudURL != ""))

	return append(resps, botx.Response{
		ChatID:   req.Chat.ID,
		Text:     renderKeywords(st.Analysis),
		ImageURL: st.Analysis.WordCloudURL,
	}), nil
}

func (c *Ctrl) brief(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	if c.Revisor == nil {
		return reply(req, "Briefs are turned off."), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	st := d.Search.State()
	idx, ok := parseIndex(req.Args(), len(st.Articles))
	if !ok {
		if len(st.Articles) == 0 {
			return reply(req, "Nothing to brief, /search first."), nil
		}
		return reply(req, fmt.Sprintf("Usage: /brief <n>, where n is from 1 to %d.", len(st.Articles))), nil
	}

	if err = c.API.SendMessage(ctx, botx.Response{
		ChatID: req.Chat.ID,
		Text:   "I'm working on it, please wait...",
	}); err != nil {
		return nil, fmt.Errorf("send start message: %w", err)
	}

	lang := st.Query.TranslateLanguage
	if lang == store.LanguageNone {
		lang = store.LanguageEnglish
	}

	b, err := c.Revisor.Brief(ctx, st.Articles[idx], lang)
	if err != nil {
		if errors.Is(err, revisor.ErrTooManyTokens) {
			return reply(req, "The article is too long, I can't brief it."), nil
		}
		return nil, fmt.Errorf("brief article: %w", err)
	}

	text, err := renderBrief(b)
	if err != nil {
		return nil, fmt.Errorf("render brief: %w", err)
	}

	return []botx.Response{{
		ChatID:           req.Chat.ID,
		ReplyToMessageID: req.MessageID,
		Text:             text,
		ImageURL:         b.ImageURL,
	}}, nil
}

func (c *Ctrl) history(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	entries, err := d.History.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrAnonymous) {
			return reply(req, "Please /login to see your history."), nil
		}
		return reply(req, failure("Failed to load history", err)), nil
	}

	text, err := renderHistory(entries)
	if err != nil {
		return nil, fmt.Errorf("render history: %w", err)
	}

	return reply(req, text), nil
}

func (c *Ctrl) forget(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	id, ok := parseID(req.Args())
	if !ok {
		return reply(req, "Usage: /forget <id>, see /history for ids."), nil
	}

	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if !d.Session.State().Authenticated() {
		return reply(req, "Please /login to manage your history."), nil
	}

	d.History.Delete(ctx, id)
	return reply(req, fmt.Sprintf("Asked to forget search #%d.", id)), nil
}

func (c *Ctrl) forgetAll(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	d, err := c.dashboard(ctx, req)
	if err != nil {
		return nil, err
	}

	if !d.Session.State().Authenticated() {
		return reply(req, "Please /login to manage your history."), nil
	}

	d.History.Clear(ctx)
	return reply(req, "Asked to clear your search history."), nil
}

func (c *Ctrl) stats(_ context.Context, req botx.Request) ([]botx.Response, error) {
	sb := &strings.Builder{}

	chats := c.Dashboards.Stat()
	_, _ = fmt.Fprintf(sb, "active chats: %d\n", c.Dashboards.Len())
	_, _ = fmt.Fprintf(sb, "chats cache: hits: %d, misses: %d, evictions: %d, added: %d\n",
		chats.Hits, chats.Misses, chats.Evicted, chats.Added)

	if c.Revisor != nil {
		gpt := c.Revisor.GPTCacheStat()
		_, _ = fmt.Fprintf(sb, "gpt cache: hits: %d, misses: %d, evictions: %d, added: %d\n",
			gpt.Hits, gpt.Misses, gpt.Evicted, gpt.Added)
	}

	return []botx.Response{{ChatID: req.Chat.ID, Text: sb.String()}}, nil
}

// dashboard returns the dashboard of the chat once its session is restored.
func (c *Ctrl) dashboard(ctx context.Context, req botx.Request) (*dashboard.Dashboard, error) {
	d := c.Dashboards.Get(ctx, req.Chat.ID)

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for session: %w", ctx.Err())
	case <-d.Session.Ready():
		return d, nil
	}
}

func reply(req botx.Request, text string) []botx.Response {
	return []botx.Response{req.Reply(text)}
}

// failure makes a message of the failed backend call,
// preferring the message supplied by the backend.
func failure(prefix string, err error) string {
	if msg, ok := backend.Message(err); ok {
		return prefix + ": " + escapeMarkdown(msg)
	}
	return prefix + ", please try again later."
}
