package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	c, err := LoadCatalog()
	require.NoError(t, err)
	r, err := New(c, NewSanitizer())
	require.NoError(t, err)
	return r
}

func TestCatalogIsComplete(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	for _, loc := range locale.All() {
		assert.Empty(t, c.Missing(loc), "locale %s", loc)
	}
}

func TestCatalogTranslates(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	assert.Equal(t, "ログイン", c.Printer(locale.Japanese).Sprintf("nav.sign_in"))
	assert.Equal(t, "Đăng nhập", c.Printer(locale.Vietnamese).Sprintf("nav.sign_in"))
	assert.Equal(t, "Welcome back, Ana", c.Printer(locale.English).Sprintf("dashboard.welcome", "Ana"))
}

func TestLocaleName(t *testing.T) {
	assert.Equal(t, "日本語", LocaleName(locale.Japanese))
	assert.Equal(t, "English", LocaleName(locale.English))
	assert.Equal(t, "Tiếng Việt", LocaleName(locale.Vietnamese))
}

func TestRenderSignInPage(t *testing.T) {
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusUnprocessableEntity, "sign_in", Page{
		Locale: locale.Vietnamese,
		Path:   "/sign-in",
		Title:  "signin.title",
		Error:  `<b>Invalid</b> credentials`,
		Form:   map[string]string{"email": `a"b@example.com`},
	})

	body := rec.Body.String()
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `<html lang="vi">`)
	assert.Contains(t, body, "Đăng nhập vào tài khoản")
	assert.Contains(t, body, `action="/vi/sign-in"`)
	assert.Contains(t, body, "Invalid credentials")
	assert.NotContains(t, body, "<b>Invalid</b>")
	assert.Contains(t, body, `value="a&#34;b@example.com"`)
	assert.Contains(t, body, `href="/ja/sign-in"`)
	assert.Contains(t, body, `href="/en/sign-in"`)
}

func TestRenderDashboardSanitizesDescriptions(t *testing.T) {
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "dashboard", Page{
		Locale: locale.English,
		Path:   "/dashboard",
		Title:  "dashboard.title",
		User:   &model.User{ID: "1", FullName: "Ana"},
		Data: DashboardData{
			Stats: model.ConferenceStats{TotalConferences: 4, ActiveConferences: 1},
			Workspaces: []model.Workspace{
				{ID: "1", Name: "Ops", Description: `<strong>Tokyo</strong><script>alert(1)</script>`},
			},
		},
	})

	body := rec.Body.String()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Welcome back, Ana")
	assert.Contains(t, body, "Total: 4")
	assert.Contains(t, body, "<strong>Tokyo</strong>")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `action="/en/sign-out"`)
}

func TestRenderListPages(t *testing.T) {
	r := newTestRenderer(t)
	user := &model.User{ID: "1", FullName: "Ana"}

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "glossaries", Page{
		Locale: locale.English,
		Path:   "/glossaries",
		Title:  "glossaries.title",
		User:   user,
		Data: GlossaryListData{Glossaries: []model.Glossary{
			{ID: "3", Name: "Medical", SourceLang: "ja", TargetLang: "en", TermCount: 12},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Medical")
	assert.Contains(t, rec.Body.String(), "12 terms")
	assert.Contains(t, rec.Body.String(), `href="/en/workspaces"`)

	rec = httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "workspaces", Page{
		Locale: locale.Vietnamese,
		Path:   "/workspaces",
		Title:  "workspaces.title",
		User:   user,
		Data:   WorkspaceListData{Unavailable: true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Không thể tải danh sách.")
}

func TestRenderUnknownPage(t *testing.T) {
	r := newTestRenderer(t)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "missing", Page{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStaticServesEmbeddedAssets(t *testing.T) {
	rec := httptest.NewRecorder()
	Static("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "--accent"))
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	assert.Equal(t, "Don't <panic>", s.Text(`Don't <b>&lt;panic&gt;</b>`))
	assert.Equal(t, "", s.Text(""))
	assert.NotContains(t, string(s.HTML(`<a href="javascript:alert(1)">x</a>`)), "javascript")
}
