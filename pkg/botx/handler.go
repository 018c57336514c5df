package botx

import (
	"context"
	"strings"
)

// Handler handles requests.
type Handler func(ctx context.Context, req Request) ([]Response, error)

// Middleware wraps the handler.
type Middleware func(Handler) Handler

// With returns a new handler with middleware applied.
func (h Handler) With(mws ...Middleware) Handler {
	base := h
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// Response is a response from handler.
type Response struct {
	ReplyToMessageID string
	ChatID           string
	Text             string
	// ImageURL, if set, makes the response a photo with Text as its caption.
	ImageURL string
}

// Request is a request for handler.
type Request struct {
	MessageID string
	Chat      Chat
	Text      string
}

// Command returns the command of the request, without the bot mention,
// e.g. "/search" for "/search@briefly_bot AI".
func (r Request) Command() string {
	cmd, _, _ := strings.Cut(strings.TrimSpace(r.Text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}

// Args returns the words of the request after the command.
func (r Request) Args() []string {
	fields := strings.Fields(r.Text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// Reply makes a response to the request.
func (r Request) Reply(text string) Response {
	return Response{ChatID: r.Chat.ID, ReplyToMessageID: r.MessageID, Text: text}
}

// Chat contains chat information.
type Chat struct {
	ID       string
	Username string
}

// NotFound is a default handler for not found commands.
func NotFound(_ context.Context, req Request) ([]Response, error) {
	return []Response{{
		ChatID: req.Chat.ID,
		Text:   "command not found",
	}}, nil
}
