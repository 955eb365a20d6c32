package middleware

import (
	"context"
	"net/http"
	"time"
)

// StreamingTimeout bounds long-lived responses such as the event stream
// without buffering them the way http.TimeoutHandler does. The connection
// write deadline follows the context so a stalled client cannot pin the
// handler past maxDuration.
func StreamingTimeout(maxDuration time.Duration) func(http.Handler) http.Handler {
	if maxDuration <= 0 {
		maxDuration = time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			// Not every writer supports deadlines (httptest does not).
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(maxDuration + 5*time.Second))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
