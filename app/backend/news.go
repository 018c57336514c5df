package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Semior001/briefly/app/store"
)

// SearchRequest defines parameters of the news search.
type SearchRequest struct {
	Query store.Query
	Count int
}

// SearchResult is a page of articles, up to the requested count.
type SearchResult struct {
	Total    int
	Articles []store.Article
}

// SearchNews searches news. The backend is stateless: every call
// re-runs the search and returns the first Count articles.
func (c *Client) SearchNews(ctx context.Context, req SearchRequest) (SearchResult, error) {
	q := url.Values{}
	q.Set("keyword", req.Query.Keyword)
	q.Set("country", string(req.Query.Country))
	q.Set("translate_to", string(req.Query.TranslateLanguage))
	q.Set("page_size", strconv.Itoa(req.Count))
	q.Set("use_gpt", strconv.FormatBool(req.Query.UseAdvancedSummary))

	from, to := req.Query.DateRange()
	if from != "" {
		q.Set("from_date", from)
	}
	if to != "" {
		q.Set("to_date", to)
	}

	var resp envelope[struct {
		Total    int             `json:"total"`
		Articles []store.Article `json:"articles"`
	}]

	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/news/search", query: q}, &resp); err != nil {
		return SearchResult{}, fmt.Errorf("search news: %w", err)
	}

	if resp.Status == statusError {
		return SearchResult{}, fmt.Errorf("search news: %w", &Error{StatusCode: http.StatusOK, Message: resp.Message})
	}

	return SearchResult{Total: resp.Data.Total, Articles: resp.Data.Articles}, nil
}

// Analyze returns keyword rankings and a word cloud of the articles.
func (c *Client) Analyze(ctx context.Context, articles []store.Article, topN int) (store.Analysis, error) {
	body := struct {
		Articles []store.Article `json:"articles"`
		TopN     int             `json:"top_n"`
	}{Articles: articles, TopN: topN}

	var resp envelope[struct {
		Keywords     []store.Keyword `json:"keywords"`
		WordCloudURL string          `json:"wordcloudUrl"`
	}]

	err := c.do(ctx, call{method: http.MethodPost, path: "/api/analysis/complete", body: body}, &resp)
	if err != nil {
		return store.Analysis{}, fmt.Errorf("analyze articles: %w", err)
	}

	if resp.Status == statusError {
		return store.Analysis{}, fmt.Errorf("analyze articles: %w", &Error{StatusCode: http.StatusOK, Message: resp.Message})
	}

	wordCloudURL := resp.Data.WordCloudURL
	if wordCloudURL != "" {
		if u, err := url.Parse(wordCloudURL); err == nil && !u.IsAbs() {
			wordCloudURL = c.baseURL + wordCloudURL
		}
	}

	return store.Analysis{Keywords: resp.Data.Keywords, WordCloudURL: wordCloudURL}, nil
}
