// Package botapi contains implementations of bot API interfaces.
package botapi

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Semior001/briefly/pkg/botx"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/exp/slog"
)

// maxCaptionLen is the limit of the photo caption in telegram.
const maxCaptionLen = 1024

// Telegram is a controller that handles requests from telegram.
type Telegram struct {
	log     *slog.Logger
	api     *tgbotapi.BotAPI
	updates chan botx.Request
}

// NewTelegram returns a new telegram bot controller.
func NewTelegram(lg *slog.Logger, token string, bufferSize int) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("make new api: %w", err)
	}

	stdlibLogger := slog.NewLogLogger(lg.Handler(), slog.LevelWarn)
	stdlibLogger.SetPrefix("telegram-bot-api: ")

	if err = tgbotapi.SetLogger(stdlibLogger); err != nil {
		return nil, fmt.Errorf("set logger: %w", err)
	}

	return &Telegram{
		log:     lg,
		api:     api,
		updates: make(chan botx.Request, bufferSize),
	}, nil
}

// Run runs telegram bot listener until Stop is called.
func (b *Telegram) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if req, ok := request(update); ok {
			b.updates <- req
		}
	}
}

func request(update tgbotapi.Update) (botx.Request, bool) {
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		return botx.Request{}, false
	}

	return botx.Request{
		MessageID: strconv.Itoa(update.Message.MessageID),
		Chat: botx.Chat{
			ID:       strconv.FormatInt(update.Message.Chat.ID, 10),
			Username: update.Message.Chat.UserName,
		},
		Text: update.Message.Text,
	}, true
}

// Stop stops telegram bot listener.
func (b *Telegram) Stop() {
	b.api.StopReceivingUpdates()
	close(b.updates)
}

// Updates returns updates channel.
func (b *Telegram) Updates() <-chan botx.Request {
	return b.updates
}

// SendMessage sends message to telegram user.
func (b *Telegram) SendMessage(ctx context.Context, resp botx.Response) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg, err := chattable(resp)
	if err != nil {
		return err
	}

	if _, err = b.api.Send(msg); err != nil {
		if resp.ImageURL == "" {
			return fmt.Errorf("send message: %w", err)
		}

		// telegram could not download the image, the text still matters
		b.log.WarnCtx(ctx, "failed to send photo, sending text", slog.Any("err", err))
		resp.ImageURL = ""
		return b.SendMessage(ctx, resp)
	}

	return nil
}

func chattable(resp botx.Response) (tgbotapi.Chattable, error) {
	chatID, err := strconv.ParseInt(resp.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse chat id: %w", err)
	}

	replyTo := 0
	if resp.ReplyToMessageID != "" {
		if replyTo, err = strconv.Atoi(resp.ReplyToMessageID); err != nil {
			return nil, fmt.Errorf("parse reply to message id: %w", err)
		}
	}

	if resp.ImageURL != "" && len(resp.Text) <= maxCaptionLen {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(resp.ImageURL))
		photo.Caption = resp.Text
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyToMessageID = replyTo
		return photo, nil
	}

	msg := tgbotapi.NewMessage(chatID, resp.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo
	return msg, nil
}
