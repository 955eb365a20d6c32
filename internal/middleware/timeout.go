package middleware

import (
	"net/http"
	"time"
)

const (
	apiTimeoutBody  = `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`
	pageTimeoutBody = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Request timed out</title></head>` +
		`<body><h1>Request timed out</h1><p>Please reload the page.</p></body></html>`
)

// Timeout bounds a whole JSON request. It buffers the response, so streaming
// routes use StreamingTimeout instead.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return timeoutWith(timeout, apiTimeoutBody, "application/json")
}

// PageTimeout is Timeout for HTML pages.
func PageTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return timeoutWith(timeout, pageTimeoutBody, "text/html; charset=utf-8")
}

func timeoutWith(timeout time.Duration, body string, contentType string) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, body)
		// Headers written by next replace this one when it finishes in time.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			bounded.ServeHTTP(w, r)
		})
	}
}
