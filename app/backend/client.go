// Package backend implements a client for the news dashboard REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Semior001/briefly/pkg/logx"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
)

// Client makes requests to the backend.
type Client struct {
	log     *slog.Logger
	baseURL string
	rq      *requester.Requester
}

// NewClient makes a new backend client.
// Timeout of the passed http client limits every request.
func NewClient(lg *slog.Logger, cl http.Client, baseURL string) *Client {
	rq := requester.New(cl,
		middleware.Header("Accept", "application/json"),
		requestIDHeader,
		bearerToken,
		logx.LoggingRoundTripper(lg, logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"Authorization"},
			SecretPaths:   []string{loginPath, signupPath},
		}),
	)

	return &Client{
		log:     lg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rq:      rq,
	}
}

// ErrMalformedResponse is returned when the backend answered with
// a body the client can't decode. Repeating the request won't help.
var ErrMalformedResponse = errors.New("decode response")

// Error is an error response of the backend.
type Error struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded with status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized returns true if the backend definitely rejected the credentials.
func IsUnauthorized(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Message returns the message for the user, supplied by the backend, if any.
func Message(err error) (string, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Message == "" {
		return "", false
	}
	return e.Message, true
}

type tokenKey struct{}

// WithToken returns a context, requests with which are authorized by the token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token put by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey{}).(string)
	return v, ok && v != ""
}

func bearerToken(next http.RoundTripper) http.RoundTripper {
	return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if token, ok := TokenFromContext(req.Context()); ok {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return next.RoundTrip(req)
	})
}

func requestIDHeader(next http.RoundTripper) http.RoundTripper {
	return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if reqID, ok := logx.RequestIDFromContext(req.Context()); ok {
			req = req.Clone(req.Context())
			req.Header.Set("X-Request-ID", reqID)
		}
		return next.RoundTrip(req)
	})
}

// envelope is a wrapper of the responses of news and analysis endpoints.
type envelope[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

const statusError = "error"

type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, cl call, dst any) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader = http.NoBody
	if cl.body != nil {
		bts, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(bts)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.rq.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return nil
}

// errorMessage extracts the message from an error body,
// the backend puts it either to "detail" or to "message".
func errorMessage(rd io.Reader) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}

	if err := json.NewDecoder(io.LimitReader(rd, 64*1024)).Decode(&body); err != nil {
		return ""
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil && detail != "" {
		return detail
	}

	return body.Message
}

// Health returns the status reported by the backend.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}

	if err := c.do(ctx, call{method: http.MethodGet, path: "/health"}, &resp); err != nil {
		return "", fmt.Errorf("check health: %w", err)
	}

	return resp.Status, nil
}
