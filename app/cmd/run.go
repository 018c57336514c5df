package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Semior001/briefly/app/backend"
	"github.com/Semior001/briefly/app/bot"
	"github.com/Semior001/briefly/app/dashboard"
	"github.com/Semior001/briefly/app/revisor"
	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/botx"
	"github.com/Semior001/briefly/pkg/botx/botapi"
	"github.com/Semior001/briefly/pkg/logx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Run is a command to run the bot.
type Run struct {
	CommonOpts `no-flag:"true"`

	Bot struct {
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"2m" description:"timeout for requests"`

		Telegram struct {
			Token string `long:"token" env:"TOKEN" required:"true" description:"telegram token"`
		} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

		AdminIDs []string      `long:"admin-ids" env:"ADMIN_IDS" env-delim:"," description:"admin IDs"`
		Workers  int           `long:"workers" env:"WORKERS" default:"10" description:"number of workers handling updates"`
		IdleTTL  time.Duration `long:"idle-ttl" env:"IDLE_TTL" default:"24h" description:"time to keep the dashboard of an idle chat"`
		MaxChats int           `long:"max-chats" env:"MAX_CHATS" default:"1000" description:"max number of chats kept in memory"`
	} `group:"bot" namespace:"bot" env-namespace:"BOT"`

	Revisor struct {
		FetchTimeout time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s" description:"timeout for fetching article pages"`

		OpenAI struct {
			Token     string        `long:"token" env:"TOKEN" description:"OpenAI token, briefs are off without it"`
			MaxTokens int           `long:"max-tokens" env:"MAX_TOKENS" default:"1000" description:"max tokens for OpenAI"`
			Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"5m" description:"timeout for OpenAI calls"`
		} `group:"openai" namespace:"openai" env-namespace:"OPENAI"`
	} `group:"revisor" namespace:"revisor" env-namespace:"REVISOR"`

	MetricsAddr string `long:"metrics-addr" env:"METRICS_ADDR" description:"address to serve prometheus metrics at, off if empty"`
}

// Execute runs the command.
func (r *Run) Execute(_ []string) error {
	lg := slog.Default()

	s, err := store.NewBolt(r.StorePath)
	if err != nil {
		return fmt.Errorf("make store: %w", err)
	}

	defer func() {
		if err := s.Close(); err != nil {
			lg.Error("close bolt store", slog.Any("err", err))
		}
	}()

	profiles, err := s.List(context.Background())
	if err != nil {
		return fmt.Errorf("list stored sessions: %w", err)
	}
	lg.Info("opened credential store",
		slog.String("path", r.StorePath),
		slog.Int("stored_sessions", len(profiles)),
	)

	api := backend.NewClient(
		lg.With(slog.String("prefix", "backend")),
		http.Client{Timeout: r.BackendTimeout},
		r.BackendURL,
	)

	r.checkBackend(lg, api)

	tg, err := botapi.NewTelegram(
		lg.With(slog.String("prefix", "telegram")),
		r.Bot.Telegram.Token,
		100,
	)
	if err != nil {
		return fmt.Errorf("make telegram controller: %w", err)
	}

	ctrl := &bot.Ctrl{
		Logger:         lg.With(slog.String("prefix", "bot")),
		API:            tg,
		AdminIDs:       r.Bot.AdminIDs,
		HandlerTimeout: r.Bot.Timeout,
	}

	if r.Revisor.OpenAI.Token != "" {
		ctrl.Revisor = revisor.NewService(
			lg.With(slog.String("prefix", "revisor")),
			http.Client{Timeout: r.Revisor.FetchTimeout},
			revisor.NewChatGPT(
				lg.With(slog.String("prefix", "chatgpt")),
				&http.Client{Timeout: r.Revisor.OpenAI.Timeout},
				r.Revisor.OpenAI.Token,
				r.Revisor.OpenAI.MaxTokens,
			),
		)
	}

	ctrl.Dashboards = bot.NewDashboards(r.Bot.IdleTTL, r.Bot.MaxChats, func(ctx context.Context, chatID string) *dashboard.Dashboard {
		// the dashboard outlives the request it is made in
		ctx = logx.Detach(ctx)

		d := dashboard.New(ctx, dashboard.Params{
			Profile:            chatID,
			Backend:            api,
			Storage:            s,
			Logger:             lg.With(slog.String("prefix", "dashboard")),
			SessionRetries:     r.SessionRetries,
			RetryInterval:      r.RetryInterval,
			KeepOnNetworkError: r.KeepOnNetworkError,
			SearchOptions:      []search.Option{search.WithAnalysis(), search.WithTimeout(r.BackendTimeout)},
		})
		d.Session.Subscribe(ctrl.NotifyInvalidated(ctx, chatID))
		return d
	})
	defer ctrl.Dashboards.Close()

	b := botx.NewBot(
		ctrl.Routes().Handle,
		tg,
		botx.WithLogger(lg.With(slog.String("prefix", "botx"))),
		botx.WithWorkers(r.Bot.Workers),
	)

	if err := ctrl.NotifyAdmins(context.Background(), "bot started"); err != nil {
		return fmt.Errorf("notify admins about started bot: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case sig := <-sig:
			slog.Warn("caught signal, stopping", slog.String("signal", sig.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error {
		lg.Info("starting bot")
		b.Run(ctx)
		lg.Warn("bot stopped")
		return nil
	})
	if r.MetricsAddr != "" {
		ewg.Go(func() error { return r.serveMetrics(ctx, lg) })
	}

	// we should run api out of errgroup, because it lives longer than the context,
	// as we want to notify admins about bot stopping
	apiStopped := make(chan struct{})
	go func() {
		lg.Info("starting telegram api")
		tg.Run()
		lg.Warn("telegram api stopped listening for updates")
		apiStopped <- struct{}{}
	}()

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		msg := fmt.Sprintf("bot stopped with error: %v", err)

		if sendErr := ctrl.NotifyAdmins(context.Background(), msg); sendErr != nil {
			return fmt.Errorf("notify admins about stopped bot (for reason: %v): %w", err, sendErr)
		}

		return err
	}

	if err := ctrl.NotifyAdmins(context.Background(), "bot stopped"); err != nil {
		return fmt.Errorf("notify admins about stopped bot: %w", err)
	}

	lg.Info("stopping telegram api")
	tg.Stop()
	<-apiStopped
	lg.Info("telegram api stopped")

	return nil
}

// checkBackend only warns, the backend may come up later.
func (r *Run) checkBackend(lg *slog.Logger, api *backend.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), r.BackendTimeout)
	defer cancel()

	status, err := api.Health(ctx)
	if err != nil {
		lg.Warn("backend is not available", slog.String("url", r.BackendURL), slog.Any("err", err))
		return
	}

	lg.Info("backend is available", slog.String("url", r.BackendURL), slog.String("status", status))
}

func (r *Run) serveMetrics(ctx context.Context, lg *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              r.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Warn("failed to shutdown metrics server", slog.Any("err", err))
		}
	}()

	lg.Info("serving metrics", slog.String("addr", r.MetricsAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}

var _ Commander = (*Run)(nil)
