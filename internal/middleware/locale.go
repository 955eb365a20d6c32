package middleware

import (
	"net/http"
	"strings"
	"time"

	"giantylive-web/internal/cookie"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/session"
)

const localeCookieTTL = 365 * 24 * time.Hour

var passthroughPrefixes = []string{"/static/", "/_next/", "/api/"}

var passthroughPaths = []string{"/favicon.ico", "/robots.txt", "/health", "/metrics"}

var (
	authRoutes      = []string{"/sign-in", "/sign-up"}
	protectedRoutes = []string{"/dashboard", "/workspaces", "/glossaries"}
)

// LocaleRequest is everything the locale state machine looks at.
type LocaleRequest struct {
	Path           string
	RawQuery       string
	CookieLocale   string
	AcceptLanguage string
	HasToken       bool
}

// LocaleDecision is the outcome for one request. An empty Redirect means the
// request continues with Locale in its context.
type LocaleDecision struct {
	Redirect       string
	Locale         locale.Locale
	RememberLocale bool
}

func (d LocaleDecision) Passes() bool {
	return d.Redirect == ""
}

// ResolveLocale runs the routing rules for a request path.
func ResolveLocale(req LocaleRequest, fallback locale.Locale) LocaleDecision {
	fallback = locale.OrDefault(string(fallback), locale.Default)
	negotiated := locale.Negotiate(req.CookieLocale, req.AcceptLanguage, fallback)

	if isPassthrough(req.Path) {
		return LocaleDecision{Locale: negotiated}
	}

	if req.Path == "" || req.Path == "/" {
		return LocaleDecision{
			Redirect: withQuery(locale.OrDefault(req.CookieLocale, fallback).Path(""), req.RawQuery),
			Locale:   locale.OrDefault(req.CookieLocale, fallback),
		}
	}

	pathLocale, prefixed := locale.FromPath(req.Path)

	decision := LocaleDecision{Locale: pathLocale}
	if prefixed {
		_, hasCookie := locale.Parse(req.CookieLocale)
		decision.RememberLocale = !hasCookie
	} else {
		decision = LocaleDecision{
			Redirect: withQuery(negotiated.Path(req.Path), req.RawQuery),
			Locale:   negotiated,
		}
	}

	redirectLocale := fallback
	if prefixed {
		redirectLocale = pathLocale
	}

	rest := locale.StripPrefix(req.Path)
	switch {
	case req.HasToken && isAuthRoute(rest):
		return LocaleDecision{Redirect: redirectLocale.Path("/dashboard"), Locale: redirectLocale}
	case !req.HasToken && isProtectedRoute(rest):
		return LocaleDecision{Redirect: redirectLocale.Path("/sign-in"), Locale: redirectLocale}
	}

	return decision
}

// Locale applies ResolveLocale to every request. Redirects use 307 so form
// posts keep their method.
func Locale(fallback locale.Locale, opts cookie.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := LocaleRequest{
				Path:           r.URL.Path,
				RawQuery:       r.URL.RawQuery,
				CookieLocale:   cookieValue(r, locale.CookieName),
				AcceptLanguage: r.Header.Get("Accept-Language"),
				HasToken:       hasToken(r),
			}

			decision := ResolveLocale(req, fallback)
			if !decision.Passes() {
				http.Redirect(w, r, decision.Redirect, http.StatusTemporaryRedirect)
				return
			}

			if decision.RememberLocale {
				jar := cookie.NewStore(w, r, opts)
				jar.SetWithTTL(locale.CookieName, decision.Locale.String(), localeCookieTTL)
			}

			next.ServeHTTP(w, r.WithContext(locale.WithContext(r.Context(), decision.Locale)))
		})
	}
}

func hasToken(r *http.Request) bool {
	if token, ok := session.TokenFromContext(r.Context()); ok {
		return token != ""
	}
	return cookieValue(r, session.TokenCookie) != ""
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func isPassthrough(path string) bool {
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, exact := range passthroughPaths {
		if path == exact {
			return true
		}
	}
	return false
}

func isAuthRoute(rest string) bool {
	rest = strings.TrimSuffix(rest, "/")
	for _, route := range authRoutes {
		if rest == route {
			return true
		}
	}
	return false
}

// isProtectedRoute matches whole segments, so /dashboards is not protected.
func isProtectedRoute(rest string) bool {
	for _, route := range protectedRoutes {
		if rest == route || strings.HasPrefix(rest, route+"/") {
			return true
		}
	}
	return false
}

func withQuery(path string, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
