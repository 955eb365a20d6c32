//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"giantylive-web/internal/app"
	"giantylive-web/internal/backendtest"
	"giantylive-web/internal/config"
)

// newServer starts the web server against a fake backend and the database
// named by TEST_DATABASE_URL.
func newServer(t *testing.T) (*httptest.Server, *backendtest.Server) {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	backend := backendtest.New(t)
	cfg := &config.Config{
		ServerPort:        "0",
		RequestTimeout:    10 * time.Second,
		StreamMaxDuration: time.Minute,
		APIBaseURL:        backend.URL,
		APITimeout:        5 * time.Second,
		DefaultLocale:     "ja",
		CookieTTL:         time.Hour,
		AuthRateLimitRPM:  1000,
		DatabaseURL:       databaseURL,
		DBMaxConns:        4,
		DBMinConns:        1,
		LogFormat:         "json",
		LogLevel:          "error",
	}

	application, err := app.Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server, backend
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doJSON(t *testing.T, client *http.Client, method string, url string, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		Redirect string `json:"redirect"`
	} `json:"error"`
	Meta *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
}

func decode[T any](t *testing.T, payload []byte) envelope[T] {
	t.Helper()

	var out envelope[T]
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}
