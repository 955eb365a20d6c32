package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"giantylive-web/internal/auth"
	"giantylive-web/internal/event"
	"giantylive-web/internal/feed"
	"giantylive-web/internal/model"
	"giantylive-web/internal/session"
	"giantylive-web/pkg/apierror"
)

const streamHeartbeat = 25 * time.Second

type sessionEventSource interface {
	Query(ctx context.Context, query model.SessionEventQuery) ([]event.Event, model.Meta, error)
}

type SessionEventHandler struct {
	events sessionEventSource
	hub    *feed.Hub
	auth   *auth.Manager
}

func NewSessionEventHandler(events sessionEventSource, hub *feed.Hub, manager *auth.Manager) *SessionEventHandler {
	return &SessionEventHandler{events: events, hub: hub, auth: manager}
}

type sessionEventList struct {
	Items []event.Event `json:"items"`
}

func (h *SessionEventHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := sessionEventQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, meta, err := h.events.Query(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessionEventList{Items: items}, &meta)
}

func sessionEventQuery(r *http.Request) (model.SessionEventQuery, error) {
	values := r.URL.Query()
	query := model.SessionEventQuery{
		Type:   strings.TrimSpace(values.Get("type")),
		UserID: strings.TrimSpace(values.Get("user_id")),
		Page:   parseIntOrDefault(values.Get("page"), 1),
		Limit:  parseIntOrDefault(values.Get("limit"), 50),
	}

	fields := map[string]string{}
	for name, dst := range map[string]*time.Time{"from": &query.From, "to": &query.To} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fields[name] = "must be an RFC 3339 timestamp"
			continue
		}
		*dst = parsed
	}
	if len(fields) > 0 {
		return query, apierror.Validation("Invalid time range", fields)
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return query, apierror.Validation("Invalid time range", map[string]string{"to": "must not be before from"})
	}
	return query, nil
}

// Stream pushes session events to the browser as server-sent events.
func (h *SessionEventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, apierror.New("STREAMING_UNSUPPORTED", "streaming is not supported", "", http.StatusInternalServerError))
		return
	}

	client, ok := h.hub.Join(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAVAILABLE", "event stream is shutting down", "", http.StatusServiceUnavailable))
		return
	}
	defer h.hub.Leave(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case message, open := <-client.Messages():
			if !open {
				return
			}
			fmt.Fprintf(w, "event: session\ndata: %s\n\n", message)
			flusher.Flush()
		}
	}
}

// RequireAdmin admits requests whose token the backend accepts for an admin
// user. The role in the user cookie is never trusted.
func (h *SessionEventHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store, ok := session.FromContext(r.Context())
		if !ok {
			writeError(w, r, model.ErrNoSession)
			return
		}

		user, err := h.auth.Authorize(r.Context(), store)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !user.IsAdmin() {
			writeError(w, r, apierror.New("FORBIDDEN", "Access denied", "", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}
