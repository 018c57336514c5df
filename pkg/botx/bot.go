// Package botx provides interfaces and types to handle bot updates,
// with a command router.
package botx

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/Semior001/briefly/pkg/logx"
	"golang.org/x/exp/slog"
)

// API defines methods for an API interface to receive and send chat messages.
type API interface {
	Updates() <-chan Request
	SendMessage(ctx context.Context, resp Response) error
}

// Bot defines parameters for running a bot over some API.
type Bot struct {
	h   Handler
	api API
	Options
}

// NewBot creates a new Bot.
func NewBot(h Handler, api API, opts ...Option) *Bot {
	options := Options{
		Workers:   1,
		QueueSize: 16,
		Logger:    slog.New(logx.NoOp()),
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Bot{
		h:       h,
		api:     api,
		Options: options,
	}
}

// Run starts updates listener. Updates of the same chat are always handled
// by the same worker, one after another, in the order they were received.
// Run returns when the context is done or the updates channel is closed.
func (b *Bot) Run(ctx context.Context) {
	queues := make([]chan Request, b.Workers)

	wg := &sync.WaitGroup{}
	wg.Add(b.Workers)

	for i := range queues {
		queues[i] = make(chan Request, b.QueueSize)

		go func(idx int, queue <-chan Request) {
			b.Logger.InfoCtx(ctx, "starting worker", slog.Int("worker", idx))

			defer func() {
				b.Logger.InfoCtx(ctx, "stopping worker", slog.Int("worker", idx))
				wg.Done()
			}()

			for req := range queue {
				b.handleUpdate(ctx, req)
			}
		}(i, queues[i])
	}

	b.dispatch(ctx, queues)

	for _, q := range queues {
		close(q)
	}

	wg.Wait()
}

func (b *Bot) dispatch(ctx context.Context, queues []chan Request) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-b.api.Updates():
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				return
			case queues[workerOf(req.Chat.ID, len(queues))] <- req:
			}
		}
	}
}

func workerOf(chatID string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	return int(h.Sum32() % uint32(workers))
}

func (b *Bot) handleUpdate(ctx context.Context, req Request) {
	if ctx.Err() != nil {
		return
	}

	resps, err := b.h(ctx, req)
	if err != nil {
		b.Logger.ErrorCtx(ctx, "failed to handle request", slog.Any("err", err))
	}

	for _, resp := range resps {
		if err := b.api.SendMessage(ctx, resp); err != nil {
			b.Logger.WarnCtx(ctx, "failed to send message", slog.Any("err", err))
		}
	}
}
