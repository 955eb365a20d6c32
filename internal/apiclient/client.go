// Package apiclient talks to the translation backend's REST API. Every call
// carries the request's bearer token, and every failure comes back as an
// *apierror.APIError classified by kind.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"giantylive-web/internal/logger"
	"giantylive-web/internal/metrics"
	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

const (
	DefaultBaseURL = "https://api-GiantyLive.sgcharo.com"
	DefaultTimeout = 10 * time.Second

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// TokenSource returns the bearer token for the request behind ctx.
type TokenSource func(ctx context.Context) (string, bool)

// UnauthorizedHook runs once for every 401 answered by the backend.
type UnauthorizedHook func(ctx context.Context)

type Options struct {
	BaseURL        string
	Timeout        time.Duration
	TokenSource    TokenSource
	OnUnauthorized UnauthorizedHook
	Metrics        metrics.Recorder
	HTTPClient     *http.Client
}

type Client struct {
	baseURL        string
	http           *http.Client
	tokenSource    TokenSource
	onUnauthorized UnauthorizedHook
	metrics        metrics.Recorder
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Client{
		baseURL:        baseURL,
		http:           httpClient,
		tokenSource:    opts.TokenSource,
		onUnauthorized: opts.OnUnauthorized,
		metrics:        recorder,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body as JSON and decodes a 2xx response into out. out may be nil.
func (c *Client) Do(ctx context.Context, method string, path string, body any, out any) error {
	endpoint := endpointLabel(path)
	started := time.Now()

	err := c.do(ctx, method, path, body, out)

	kind := "ok"
	if err != nil {
		kind = apierror.KindOf(err).String()
	}
	c.metrics.ObserveBackendCall(method, endpoint, kind, time.Since(started))

	if err != nil {
		slog.WarnContext(ctx, "backend call failed",
			"method", method,
			"path", endpoint,
			"kind", kind,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err.Error(),
		)
	}
	return err
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenSource != nil {
		if token, ok := c.tokenSource(ctx); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return apierror.Network("Request cancelled", err)
		}
		return apierror.Network("Network error", err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "backend call",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apierror.Unauthorized(extractMessage(resp.Body, "Authentication required"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromStatus(resp.StatusCode, extractMessage(resp.Body, http.StatusText(resp.StatusCode)))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apierror.Server(http.StatusBadGateway, "Unexpected response from server")
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.Post(ctx, "/api/v1/auth/signin", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.Post(ctx, "/api/v1/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.Get(ctx, "/api/v1/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// endpointLabel drops the query so metric labels stay bounded.
func endpointLabel(path string) string {
	if parsed, err := url.Parse(path); err == nil && parsed.Path != "" {
		return parsed.Path
	}
	return path
}

// errorPayload covers the error bodies the backend produces: FastAPI's
// detail (string or validation list), a flat message, or a nested error.
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func extractMessage(body io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return fallback
	}

	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}

	if msg := detailMessage(payload.Detail); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	if msg := nestedErrorMessage(payload.Error); msg != "" {
		return msg
	}
	return fallback
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if msg := strings.TrimSpace(item.Msg); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func nestedErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
