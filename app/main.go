// Package main is an entrypoint for application
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/Semior001/briefly/app/cmd"
	"github.com/Semior001/briefly/pkg/logx"
	"github.com/jessevdk/go-flags"
	"golang.org/x/exp/slog"
)

type options struct {
	Run     cmd.Run     `command:"run" description:"run briefly telegram bot"`
	Signup  cmd.Signup  `command:"signup" description:"register a new user"`
	Login   cmd.Login   `command:"login" description:"log in and keep the session under the profile"`
	Logout  cmd.Logout  `command:"logout" description:"log out of the profile"`
	Whoami  cmd.Whoami  `command:"whoami" description:"show the user of the profile"`
	Search  cmd.Search  `command:"search" description:"search news"`
	History cmd.History `command:"history" description:"show or manage the search history"`

	StorePath string `long:"store-path" env:"STORE_PATH" default:"." description:"parent dir for bolt files"`
	Profile   string `long:"profile" env:"PROFILE" default:"default" description:"profile to keep credentials under"`

	Backend struct {
		URL     string        `long:"url" env:"URL" default:"http://localhost:8000" description:"backend base url"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"20s" description:"timeout for backend calls"`
	} `group:"backend" namespace:"backend" env-namespace:"BACKEND"`

	Session struct {
		Retries            int           `long:"retries" env:"RETRIES" default:"2" description:"retries of the session validation on network errors"`
		RetryInterval      time.Duration `long:"retry-interval" env:"RETRY_INTERVAL" default:"500ms" description:"interval between retries"`
		KeepOnNetworkError bool          `long:"keep-on-network-error" env:"KEEP_ON_NETWORK_ERROR" description:"stay logged in if the backend is unreachable"`
	} `group:"session" namespace:"session" env-namespace:"SESSION"`

	JSONLogs bool `long:"json-logs" env:"JSON_LOGS" description:"turn on json logs"`
	Debug    bool `long:"dbg" env:"DEBUG" description:"turn on debug mode"`
}

var version = "unknown"

func getVersion() string {
	v, ok := debug.ReadBuildInfo()
	if !ok || v.Main.Version == "(devel)" {
		return version
	}
	return v.Main.Version
}

func main() {
	var opts options

	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		setupLog(opts)
		slog.Debug("briefly", slog.String("version", getVersion()))

		c, ok := command.(cmd.Commander)
		if !ok {
			return fmt.Errorf("unexpected command %T", command)
		}

		c.SetCommon(cmd.CommonOpts{
			StorePath:          opts.StorePath,
			Profile:            opts.Profile,
			BackendURL:         opts.Backend.URL,
			BackendTimeout:     opts.Backend.Timeout,
			SessionRetries:     opts.Session.Retries,
			RetryInterval:      opts.Session.RetryInterval,
			KeepOnNetworkError: opts.Session.KeepOnNetworkError,
		})

		if err := c.Execute(args); err != nil {
			slog.Error("failed to execute command", slog.Any("err", err))
			os.Exit(1)
		}

		return nil
	}

	// after failure command does not return non-zero code
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			slog.Error("failed to parse flags", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func setupLog(opts options) {
	handler := slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	}

	if opts.Debug {
		handler.Level = slog.LevelDebug
		handler.AddSource = true
	}

	var h slog.Handler = handler.NewTextHandler(os.Stderr)
	if opts.JSONLogs {
		h = handler.NewJSONHandler(os.Stderr)
	}

	slog.SetDefault(slog.New(&logx.Chain{Middleware: []logx.Middleware{logx.RequestID}, Handler: h}))
}
