package revisor

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/Semior001/briefly/app/store"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slog"
)

//go:embed data/prompt.tmpl
var prompt string

var promptTmpl = template.Must(template.New("prompt").Parse(prompt))

//go:generate moq -out mock_openai_client.go . OpenAIClient

// OpenAIClient is interface for OpenAI client with the possibility to mock it
type OpenAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatGPT makes bullet-point briefs of articles with OpenAI chatgpt service.
type ChatGPT struct {
	log       *slog.Logger
	cl        OpenAIClient
	maxTokens int
	cache     cache.Cache[string, string]
}

// NewChatGPT creates new ChatGPT client.
func NewChatGPT(lg *slog.Logger, cl *http.Client, token string, maxResponseTokens int) *ChatGPT {
	config := openai.DefaultConfig(token)
	config.HTTPClient = cl

	return newChatGPT(lg, &loggingClient{log: lg, cl: openai.NewClientWithConfig(config)}, maxResponseTokens)
}

func newChatGPT(lg *slog.Logger, cl OpenAIClient, maxTokens int) *ChatGPT {
	return &ChatGPT{
		log:       lg,
		cl:        cl,
		maxTokens: maxTokens,
		cache: cache.NewCache[string, string]().
			WithLRU().
			WithMaxKeys(100).
			WithTTL(24 * time.Hour),
	}
}

// maxRequestTokens is a maximum number of tokens that can be sent to OpenAI.
const maxRequestTokens = 4097

// ErrTooManyTokens is returned when article is too long.
var ErrTooManyTokens = errors.New("too many tokens")

// CacheStat returns statistics of the cache of briefs.
func (s *ChatGPT) CacheStat() cache.Stats { return s.cache.Stat() }

// BulletPoints makes a brief of the article in the given language.
func (s *ChatGPT) BulletPoints(ctx context.Context, brief store.Brief, lang store.Language) (string, error) {
	key := brief.URL + "#" + string(lang)
	if resp, ok := s.cache.Get(key); ok {
		s.log.DebugCtx(ctx, "brief is taken from cache", slog.String("url", brief.URL))
		return resp, nil
	}

	buf := &strings.Builder{}

	data := struct {
		store.Brief
		Language string
	}{Brief: brief, Language: languageName(lang)}

	if err := promptTmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	totalTokens := strings.Count(buf.String(), " ") + 1
	if totalTokens > maxRequestTokens {
		return "", ErrTooManyTokens
	}

	req := openai.ChatCompletionRequest{
		Model:     openai.GPT3Dot5Turbo,
		MaxTokens: s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buf.String()},
		},
	}

	resp, err := s.cl.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.cache.Set(key, result, 0)
	return result, nil
}

func languageName(lang store.Language) string {
	switch lang {
	case store.LanguageKorean:
		return "Korean"
	case store.LanguageEnglish:
		return "English"
	case store.LanguageJapanese:
		return "Japanese"
	default:
		return ""
	}
}

type loggingClient struct {
	log *slog.Logger
	cl  OpenAIClient
}

func (l *loggingClient) CreateChatCompletion(
	ctx context.Context,
	req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	start := time.Now()
	l.log.DebugCtx(ctx, "sending request to chatGPT")
	resp, err := l.cl.CreateChatCompletion(ctx, req)
	l.log.DebugCtx(ctx, "response received from chatGPT",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("total_tokens", resp.Usage.TotalTokens))
	return resp, err
}
