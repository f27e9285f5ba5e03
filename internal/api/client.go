// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api is the HTTP client for the question-answering collaborator:
// POST /api/ask, GET /api/papers and the GET /api/test health probe.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Elambeth/mm-archive/internal/httputil"
	"github.com/Elambeth/mm-archive/pkg/types"
)

const (
	askPath    = "/api/ask"
	papersPath = "/api/papers"
	pingPath   = "/api/test"

	defaultListTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is read looking
	// for a structured error message.
	maxErrorBody = 64 << 10
)

// Client talks to the collaborator API.
type Client struct {
	baseURL   string
	userAgent string

	// ask has no timeout: a slow answer keeps the caller waiting.
	ask *http.Client
	// list is used for the idempotent listing and health requests.
	list *http.Client

	log *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client for every request.
// Tests pass httptest's client here.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.ask = hc
		c.list = hc
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client for the collaborator described by cfg.
func NewClient(cfg types.APIConfig, opts ...Option) *Client {
	timeout := cfg.ListTimeout
	if timeout <= 0 {
		timeout = defaultListTimeout
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		ask:       &http.Client{},
		list:      &http.Client{Timeout: timeout},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends query to POST /api/ask exactly once and decodes the answer.
//
// Non-2xx responses return *APIError; network failures return
// *TransportError. A body that cannot be decoded on a 2xx response is
// returned as a plain wrapped error.
func (c *Client) Ask(ctx context.Context, query string) (*types.AnswerResult, error) {
	body, err := json.Marshal(types.AskRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encoding ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+askPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	start := time.Now()
	resp, err := c.ask.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "ask", Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("ask response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	var result types.AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing ask response: %w", err)
	}
	return &result, nil
}

// Papers fetches the corpus listing from GET /api/papers. The request is
// retried on HTTP 429.
func (c *Client) Papers(ctx context.Context) ([]types.Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+papersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := httputil.DoWithRetry(ctx, c.list, req, 0, c.log)
	if err != nil {
		return nil, &TransportError{Op: "papers", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var list types.PaperList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("parsing papers response: %w", err)
	}
	return list.Papers, nil
}

// Ping checks GET /api/test.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pingPath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setUserAgent(req)

	resp, err := c.list.Do(req)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// readAPIError builds an *APIError from a non-2xx response, picking up the
// structured {"error": ...} message when the body carries one.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body types.ErrorBody
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = strings.TrimSpace(body.Error)
	}
	return apiErr
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
