package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

// NewHealthHandler reports liveness. db may be nil when session events are
// not persisted.
func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", Database: "disabled"}
	if h.db == nil {
		writeSuccess(w, http.StatusOK, status, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		slog.WarnContext(ctx, "database health check failed", "error", err)
		status.Status = "degraded"
		status.Database = "unreachable"
		writeSuccess(w, http.StatusServiceUnavailable, status, nil)
		return
	}

	status.Database = "ok"
	writeSuccess(w, http.StatusOK, status, nil)
}
