// Package apiclient talks to the remote metrics API: POST /login and
// GET /metrics.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges a credential for an access token and role.
func (c *Client) Login(ctx context.Context, cred Credential) (LoginResponse, error) {
	body, err := json.Marshal(cred)
	if err != nil {
		return LoginResponse{}, err
	}
	data, err := c.do(ctx, http.MethodPost, "/login", bytes.NewReader(body),
		WithHeader("Content-Type", "application/json"))
	if err != nil {
		return LoginResponse{}, err
	}
	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return LoginResponse{}, fmt.Errorf("%w: login: %v", ErrDecode, err)
	}
	if out.AccessToken == "" {
		return LoginResponse{}, fmt.Errorf("%w: login response has no access_token", ErrDecode)
	}
	return out, nil
}

// Metrics fetches the metrics table. params is sent as the query string.
func (c *Client) Metrics(ctx context.Context, token string, params url.Values) ([]Row, error) {
	data, err := c.do(ctx, http.MethodGet, "/metrics", nil,
		WithBearer(token),
		WithHeader("Accept", "application/json"),
		WithQuery(params))
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: metrics: %v", ErrDecode, err)
	}
	return rows, nil
}

// do sends one request and returns the body of a 2xx response. Non-2xx
// responses become *APIError, transport failures wrap ErrConnection.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, opts ...RequestOption) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("api request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", ErrConnection, method, path, err)
	}
	c.logger.Debug("api request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}
	return data, nil
}
