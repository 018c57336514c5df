// Package botmw provides middlewares for bot handler.
package botmw

import (
	"context"
	"fmt"

	"github.com/Semior001/briefly/pkg/botx"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"
)

// Logger is a middleware that logs all requests.
// Arguments of the secret commands, e.g. the ones with passwords, are never logged.
func Logger(lg *slog.Logger, secretCommands ...string) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			args := []any{
				slog.String("chat_id", req.Chat.ID),
				slog.String("chat_username", req.Chat.Username),
				slog.String("command", req.Command()),
			}

			debug := lg.Handler().Enabled(ctx, slog.LevelDebug)

			if debug && !lo.Contains(secretCommands, req.Command()) {
				lg.DebugCtx(ctx, "request received", append(args, slog.String("text", req.Text))...)
			} else {
				lg.InfoCtx(ctx, "request received", args...)
			}

			res, err := next(ctx, req)

			if debug {
				lg.DebugCtx(ctx, "request processed", slog.Any("responses", res), slog.Any("err", err))
				return res, err
			}

			lg.InfoCtx(ctx, "request processed",
				slog.Any("responses", lo.Map(res, func(r botx.Response, _ int) botx.Response {
					return botx.Response{ChatID: r.ChatID}
				})),
				slog.Any("err", err),
			)

			return res, err
		}
	}
}

// Recover is a middleware that recovers from panics.
func Recover(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					lg.ErrorCtx(ctx, "panic recovered", slog.Any("panic", r))
					resps, err = nil, fmt.Errorf("panic: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}

// AdminOnly is a middleware that silently ignores requests of non-admin chats.
func AdminOnly(adminIDs []string) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			if !lo.Contains(adminIDs, req.Chat.ID) {
				return nil, nil
			}

			return next(ctx, req)
		}
	}
}
