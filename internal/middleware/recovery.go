package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"giantylive-web/internal/logger"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				slog.ErrorContext(r.Context(), "panic recovered",
					"error", fmt.Sprintf("%v", recovered),
					"path", r.URL.Path,
					"client_ip", logger.ClientIP(r.Context()),
					"stack", string(debug.Stack()),
				)
				writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
