package middleware

import (
	"net/http"

	"giantylive-web/internal/cookie"
	"giantylive-web/internal/session"
)

// Session attaches a cookie-backed session store to the request context.
func Session(opts cookie.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := cookie.NewStore(w, r, opts)
			ctx := session.WithStore(r.Context(), session.NewCookieStore(jar))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
