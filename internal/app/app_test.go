package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giantylive-web/internal/backendtest"
	"giantylive-web/internal/config"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
)

type testEnv struct {
	server  *httptest.Server
	backend *backendtest.Server
	client  *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := backendtest.New(t)
	cfg := &config.Config{
		ServerPort:        "0",
		RequestTimeout:    5 * time.Second,
		StreamMaxDuration: time.Minute,
		APIBaseURL:        backend.URL,
		APITimeout:        2 * time.Second,
		DefaultLocale:     "ja",
		CookieTTL:         time.Hour,
		AuthRateLimitRPM:  100,
		LogFormat:         "json",
		LogLevel:          "error",
	}

	application, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:  server,
		backend: backend,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	for key, values := range header {
		req.Header[key] = values
	}
	return e.do(t, req)
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *testEnv) postJSON(t *testing.T, path string, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		req.Header[key] = values
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) signIn(t *testing.T, email string, password string) {
	t.Helper()
	resp, _ := e.postForm(t, "/ja/sign-in", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func (e *testEnv) cookie(name string) (*http.Cookie, bool) {
	base, _ := url.Parse(e.server.URL)
	for _, c := range e.client.Jar.Cookies(base) {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func decodeEnvelope(t *testing.T, body string) model.APIResponse {
	t.Helper()
	var envelope model.APIResponse
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	return envelope
}

func TestLocaleRedirects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("root goes to the default locale", func(t *testing.T) {
		resp, _ := env.get(t, "/", nil)
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.Equal(t, "/ja", resp.Header.Get("Location"))
	})

	t.Run("unprefixed path follows Accept-Language", func(t *testing.T) {
		resp, _ := env.get(t, "/sign-in?next=x", http.Header{"Accept-Language": {"vi-VN,vi;q=0.9"}})
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.Equal(t, "/vi/sign-in?next=x", resp.Header.Get("Location"))
	})

	t.Run("protected page without a session", func(t *testing.T) {
		resp, _ := env.get(t, "/en/dashboard", nil)
		assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
		assert.Equal(t, "/en/sign-in", resp.Header.Get("Location"))
	})

	t.Run("prefixed page remembers the locale", func(t *testing.T) {
		resp, body := env.get(t, "/en/sign-in", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `<html lang="en">`)

		remembered, ok := env.cookie("NEXT_LOCALE")
		require.True(t, ok)
		assert.Equal(t, "en", remembered.Value)
	})
}

func TestPageSignInFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("mai@example.com", "secret123", model.User{FullName: "Mai Tran"})
	env.backend.SetWorkspaces(model.Workspace{ID: "1", Name: "Ops Room", IsActive: true})
	env.backend.SetConferenceStats(model.ConferenceStats{TotalConferences: 4, ActiveConferences: 1})

	resp, body := env.postForm(t, "/ja/sign-in", url.Values{"email": {"mai@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Incorrect email or password")
	assert.Contains(t, body, `value="mai@example.com"`)

	resp, _ = env.postForm(t, "/ja/sign-in", url.Values{"email": {"mai@example.com"}, "password": {"secret123"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ja", resp.Header.Get("Location"))
	_, ok := env.cookie(session.TokenCookie)
	require.True(t, ok)

	resp, _ = env.get(t, "/ja/sign-in", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/ja/dashboard", resp.Header.Get("Location"))

	resp, body = env.get(t, "/ja/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Mai Tran")
	assert.Contains(t, body, "Ops Room")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp, _ = env.postForm(t, "/ja/sign-out", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ja", resp.Header.Get("Location"))
	assert.Equal(t, `"cache", "storage"`, resp.Header.Get("Clear-Site-Data"))
	_, ok = env.cookie(session.TokenCookie)
	assert.False(t, ok)
}

func TestExpiredTokenClearsSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("an@example.com", "secret123", model.User{FullName: "An"})
	env.signIn(t, "an@example.com", "secret123")

	env.backend.RevokeTokens()

	resp, _ := env.get(t, "/ja/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ja/sign-in", resp.Header.Get("Location"))
	_, ok := env.cookie(session.TokenCookie)
	assert.False(t, ok)
	_, ok = env.cookie(session.UserCookie)
	assert.False(t, ok)
}

func TestExpiredTokenOnHomeRedirectsToSignIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("binh@example.com", "secret123", model.User{FullName: "Binh"})
	env.signIn(t, "binh@example.com", "secret123")

	env.backend.RevokeTokens()

	resp, _ := env.get(t, "/ja", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ja/sign-in", resp.Header.Get("Location"))
	_, ok := env.cookie(session.TokenCookie)
	assert.False(t, ok)
}

func TestExpiredTokenOnSessionAPIAnswers401(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("chi@example.com", "secret123", model.User{FullName: "Chi"})
	env.signIn(t, "chi@example.com", "secret123")

	env.backend.RevokeTokens()

	resp, body := env.get(t, "/api/v1/session", http.Header{"Referer": {env.server.URL + "/en/dashboard"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	envelope := decodeEnvelope(t, body)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
	assert.Equal(t, "/en/sign-in", envelope.Error.Redirect)
	_, ok := env.cookie(session.TokenCookie)
	assert.False(t, ok)
}

func TestTokenWithoutUserCookieIsSignedOut(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.backend.AddUser("dung@example.com", "secret123", model.User{FullName: "Dung"})
	base, _ := url.Parse(env.server.URL)
	env.client.Jar.SetCookies(base, []*http.Cookie{{Name: session.TokenCookie, Value: env.backend.Token(user), Path: "/"}})

	resp, body := env.get(t, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeEnvelope(t, body).Data.(map[string]any)["authenticated"])

	resp, _ = env.get(t, "/ja/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ja/sign-in", resp.Header.Get("Location"))
	_, ok := env.cookie(session.TokenCookie)
	assert.False(t, ok)

	resp, _ = env.get(t, "/ja/sign-in", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, call := range env.backend.Calls() {
		assert.NotContains(t, call, "/me")
	}
}

func TestListPages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("giang@example.com", "secret123", model.User{FullName: "Giang"})
	env.backend.SetWorkspaces(model.Workspace{ID: "4", Name: "Hanoi Desk", IsActive: true})
	env.backend.SetGlossaries(model.Glossary{ID: "9", Name: "Legal Terms", TermCount: 3})

	resp, _ := env.get(t, "/en/workspaces", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/en/sign-in", resp.Header.Get("Location"))

	env.signIn(t, "giang@example.com", "secret123")

	resp, body := env.get(t, "/en/workspaces", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hanoi Desk")

	resp, body = env.get(t, "/en/glossaries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Legal Terms")
	assert.Contains(t, body, "3 terms")

	env.backend.Fail(http.MethodGet, "/glossaries", http.StatusInternalServerError, "boom")
	resp, body = env.get(t, "/en/glossaries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "This list could not be loaded.")
}

func TestDashboardDegradesWhenStatsFail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("lan@example.com", "secret123", model.User{FullName: "Lan"})
	env.backend.SetWorkspaces(model.Workspace{ID: "2", Name: "Support"})
	env.signIn(t, "lan@example.com", "secret123")

	env.backend.Fail(http.MethodGet, "/api/v1/conferences/stats", http.StatusInternalServerError, "boom")

	resp, body := env.get(t, "/en/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Support")
	assert.Contains(t, body, `class="alert notice"`)
}

func TestSessionAPI(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("hoa@example.com", "secret123", model.User{FullName: "Hoa"})

	t.Run("failed sign-in carries a redirect hint", func(t *testing.T) {
		resp, body := env.postJSON(t, "/api/v1/session", `{"email":"hoa@example.com","password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		envelope := decodeEnvelope(t, body)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "Incorrect email or password", envelope.Error.Message)
		assert.Equal(t, "/ja/sign-in", envelope.Error.Redirect)
	})

	t.Run("no redirect hint from an auth page", func(t *testing.T) {
		resp, body := env.postJSON(t, "/api/v1/session", `{"email":"hoa@example.com","password":"nope"}`,
			http.Header{"Referer": {env.server.URL + "/en/sign-in"}})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, decodeEnvelope(t, body).Error.Redirect)
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		resp, body := env.postJSON(t, "/api/v1/session", `{"email":""}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		envelope := decodeEnvelope(t, body)
		assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
		assert.Contains(t, envelope.Error.Fields, "password")
	})

	t.Run("sign in then read the session", func(t *testing.T) {
		resp, body := env.postJSON(t, "/api/v1/session", `{"email":"hoa@example.com","password":"secret123","locale":"vi"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := decodeEnvelope(t, body).Data.(map[string]any)
		assert.Equal(t, true, data["authenticated"])
		assert.Equal(t, "/vi", data["redirect"])

		resp, body = env.get(t, "/api/v1/session", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data = decodeEnvelope(t, body).Data.(map[string]any)
		assert.Equal(t, true, data["authenticated"])
		assert.Equal(t, "hoa@example.com", data["user"].(map[string]any)["email"])
	})
}

func TestSessionEventsRequireAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.backend.AddUser("user@example.com", "secret123", model.User{})
	env.backend.AddUser("admin@example.com", "secret123", model.User{Role: model.RoleAdmin})

	resp, _ := env.get(t, "/api/v1/admin/session-events", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.signIn(t, "user@example.com", "secret123")
	resp, _ = env.get(t, "/api/v1/admin/session-events", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.postForm(t, "/ja/sign-out", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	env.signIn(t, "admin@example.com", "secret123")
	resp, body := env.get(t, "/api/v1/admin/session-events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "AUDIT_DISABLED", decodeEnvelope(t, body).Error.Code)
}

func TestSessionEventsRejectForgedAdminCookies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	victim := env.backend.AddUser("victim@example.com", "secret123", model.User{})

	forged, err := session.EncodeUser(&model.User{ID: victim.ID, Email: "x@example.com", Role: model.RoleAdmin})
	require.NoError(t, err)
	base, _ := url.Parse(env.server.URL)
	env.client.Jar.SetCookies(base, []*http.Cookie{
		{Name: session.TokenCookie, Value: "not-a-real-token", Path: "/"},
		{Name: session.UserCookie, Value: forged, Path: "/"},
	})

	resp, body := env.get(t, "/api/v1/admin/session-events", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, body).Error.Code)

	env.client.Jar.SetCookies(base, []*http.Cookie{
		{Name: session.TokenCookie, Value: "not-a-real-token", Path: "/"},
		{Name: session.UserCookie, Value: forged, Path: "/"},
	})
	resp, _ = env.get(t, "/api/v1/admin/session-events/stream", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEqual(t, "text/event-stream", resp.Header.Get("Content-Type"))
}

func TestSessionEventsUseBackendRole(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.backend.AddUser("plain@example.com", "secret123", model.User{})

	forged, err := session.EncodeUser(&model.User{ID: user.ID, Email: user.Email, Role: model.RoleAdmin})
	require.NoError(t, err)
	base, _ := url.Parse(env.server.URL)
	env.client.Jar.SetCookies(base, []*http.Cookie{
		{Name: session.TokenCookie, Value: env.backend.Token(user), Path: "/"},
		{Name: session.UserCookie, Value: forged, Path: "/"},
	})

	resp, _ := env.get(t, "/api/v1/admin/session-events", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, body := env.get(t, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"database":"disabled"`)

	resp, body = env.get(t, "/api/v1/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, body).Error.Code)

	resp, _ = env.get(t, "/ja/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, body = env.get(t, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "giantylive_web_http_requests_total")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
