package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"giantylive-web/internal/cookie"
	"giantylive-web/internal/session"
)

type call struct {
	method string
	path   string
	body   any
}

// recordingBackend answers every call with the JSON registered for its
// method and path, or with err when set.
type recordingBackend struct {
	calls     []call
	responses map[string]string
	errs      map[string]error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{responses: map[string]string{}, errs: map[string]error{}}
}

func (b *recordingBackend) on(method string, path string, response string) *recordingBackend {
	b.responses[method+" "+path] = response
	return b
}

func (b *recordingBackend) fail(method string, path string, err error) *recordingBackend {
	b.errs[method+" "+path] = err
	return b
}

func (b *recordingBackend) do(method string, path string, body any, out any) error {
	b.calls = append(b.calls, call{method: method, path: path, body: body})
	key := method + " " + path
	if err := b.errs[key]; err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if response, ok := b.responses[key]; ok {
		return json.Unmarshal([]byte(response), out)
	}
	return nil
}

func (b *recordingBackend) Get(_ context.Context, path string, out any) error {
	return b.do(http.MethodGet, path, nil, out)
}

func (b *recordingBackend) Post(_ context.Context, path string, body any, out any) error {
	return b.do(http.MethodPost, path, body, out)
}

func (b *recordingBackend) Put(_ context.Context, path string, body any, out any) error {
	return b.do(http.MethodPut, path, body, out)
}

func (b *recordingBackend) Patch(_ context.Context, path string, body any, out any) error {
	return b.do(http.MethodPatch, path, body, out)
}

func (b *recordingBackend) Delete(_ context.Context, path string, out any) error {
	return b.do(http.MethodDelete, path, nil, out)
}

func (b *recordingBackend) paths() []string {
	out := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, c.method+" "+c.path)
	}
	return out
}

func newSession(t *testing.T, cookies ...*http.Cookie) (*session.CookieStore, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "http://example.test/ja/dashboard/settings", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	return session.NewCookieStore(cookie.NewStore(rec, req, cookie.DefaultOptions())), rec
}

func writtenCookies(rec *httptest.ResponseRecorder) map[string]string {
	out := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

func requireNoCalls(t *testing.T, backend *recordingBackend) {
	t.Helper()
	require.Empty(t, backend.calls)
}
