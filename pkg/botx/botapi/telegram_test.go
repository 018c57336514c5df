package botapi

import (
	"strings"
	"testing"

	"github.com/Semior001/briefly/pkg/botx"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest(t *testing.T) {
	req, ok := request(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 42, UserName: "user"},
		Text:      "/search AI",
	}})
	require.True(t, ok)
	assert.Equal(t, botx.Request{
		MessageID: "7",
		Chat:      botx.Chat{ID: "42", Username: "user"},
		Text:      "/search AI",
	}, req)

	_, ok = request(tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = request(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}}})
	assert.False(t, ok, "messages without text are skipped")
}

func TestChattable(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		c, err := chattable(botx.Response{ChatID: "42", ReplyToMessageID: "7", Text: "*hi*"})
		require.NoError(t, err)

		msg, ok := c.(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, 7, msg.ReplyToMessageID)
		assert.Equal(t, "*hi*", msg.Text)
		assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
		assert.True(t, msg.DisableWebPagePreview)
	})

	t.Run("photo", func(t *testing.T) {
		c, err := chattable(botx.Response{ChatID: "42", Text: "cloud", ImageURL: "http://b/cloud.png"})
		require.NoError(t, err)

		photo, ok := c.(tgbotapi.PhotoConfig)
		require.True(t, ok)
		assert.Equal(t, "cloud", photo.Caption)
		assert.Equal(t, tgbotapi.FileURL("http://b/cloud.png"), photo.File)
	})

	t.Run("long caption falls back to text", func(t *testing.T) {
		c, err := chattable(botx.Response{ChatID: "42", Text: strings.Repeat("a", 2000), ImageURL: "http://b/c.png"})
		require.NoError(t, err)
		_, ok := c.(tgbotapi.MessageConfig)
		assert.True(t, ok)
	})

	t.Run("bad ids", func(t *testing.T) {
		_, err := chattable(botx.Response{ChatID: "abc"})
		assert.Error(t, err)
		_, err = chattable(botx.Response{ChatID: "42", ReplyToMessageID: "abc"})
		assert.Error(t, err)
	})
}
