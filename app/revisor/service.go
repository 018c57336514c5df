// Package revisor makes short briefs of the articles found by the search.
package revisor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Semior001/briefly/app/store"
	"github.com/Semior001/briefly/pkg/logx"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
)

// Service fetches the page of the article and summarizes it.
type Service struct {
	log       *slog.Logger
	rq        *requester.Requester
	chatGPT   *ChatGPT
	extractor Extractor
}

// NewService creates new service.
func NewService(lg *slog.Logger, cl http.Client, chatGPT *ChatGPT) *Service {
	return &Service{
		log: lg,
		rq: requester.New(cl,
			middleware.Header("User-Agent", "briefly/1.0"),
			logx.LoggingRoundTripper(lg, logx.RoundTripperOpts{Level: slog.LevelDebug}),
		),
		chatGPT: chatGPT,
	}
}

// GPTCacheStat returns cache stats.
func (s *Service) GPTCacheStat() cache.Stats { return s.chatGPT.CacheStat() }

// Brief summarizes the article in the given language. If its page can't be
// fetched or parsed, the brief is made of what the search returned.
func (s *Service) Brief(ctx context.Context, article store.Article, lang store.Language) (store.Brief, error) {
	s.log.DebugCtx(ctx, "making brief of the article", slog.String("url", article.URL))

	brief, err := s.fetch(ctx, article.URL)
	if err != nil || brief.Content == "" {
		s.log.WarnCtx(ctx, "failed to fetch article page, using search result",
			slog.String("url", article.URL), slog.Any("err", err))
		brief = fromSearch(article)
	}
	brief.URL = article.URL

	if brief.Content == "" {
		return store.Brief{}, fmt.Errorf("article %s has no content to summarize", article.URL)
	}

	if brief.BulletPoints, err = s.chatGPT.BulletPoints(ctx, brief, lang); err != nil {
		return store.Brief{}, fmt.Errorf("get bullet points: %w", err)
	}

	return brief, nil
}

func (s *Service) fetch(ctx context.Context, u string) (store.Brief, error) {
	pageURL, err := url.Parse(u)
	if err != nil {
		return store.Brief{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return store.Brief{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.rq.Do(req)
	if err != nil {
		return store.Brief{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return store.Brief{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	brief, err := s.extractor.Extract(resp.Body, pageURL)
	if err != nil {
		return store.Brief{}, fmt.Errorf("extract article: %w", err)
	}

	return brief, nil
}

func fromSearch(a store.Article) store.Brief {
	content := a.Content
	if content == "" {
		content = a.DisplayDescription()
	}

	return store.Brief{
		Title:    a.DisplayTitle(),
		Excerpt:  a.DisplayDescription(),
		Content:  sanitize(content),
		Author:   a.Author,
		ImageURL: a.ImageURL,
	}
}
