// Package audit turns session events into log lines, metrics and, when a
// database is configured, rows in the session_events table.
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"giantylive-web/internal/event"
	"giantylive-web/internal/metrics"
	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

const persistTimeout = 5 * time.Second

type Store interface {
	Insert(ctx context.Context, e event.Event) error
	Query(ctx context.Context, query model.SessionEventQuery) ([]event.Event, model.Meta, error)
}

type Recorder struct {
	bus     event.Bus
	store   Store
	metrics metrics.Recorder
}

// NewRecorder accepts a nil store; events are then only logged and counted.
func NewRecorder(bus event.Bus, store Store, recorder metrics.Recorder) *Recorder {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Recorder{bus: bus, store: store, metrics: recorder}
}

// Run consumes the bus until ctx is done or the subscription is closed.
func (r *Recorder) Run(ctx context.Context) {
	events, unsubscribe := r.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			r.Record(ctx, e)
		}
	}
}

func (r *Recorder) Record(ctx context.Context, e event.Event) {
	r.metrics.RecordSessionEvent(string(e.Type))

	slog.Info("session event",
		"type", e.Type,
		"event_id", e.ID,
		"user_id", e.UserID,
		"locale", e.Locale,
		"request_id", e.RequestID,
		"client_ip", e.ClientIP,
	)

	if r.store == nil {
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := r.store.Insert(persistCtx, e); err != nil {
		slog.Error("persist session event", "event_id", e.ID, "type", e.Type, "error", err)
	}
}

func (r *Recorder) Persistent() bool {
	return r.store != nil
}

func (r *Recorder) Query(ctx context.Context, query model.SessionEventQuery) ([]event.Event, model.Meta, error) {
	if r.store == nil {
		return nil, model.Meta{}, apierror.New("AUDIT_DISABLED", "session audit trail is not configured", "", http.StatusServiceUnavailable)
	}
	return r.store.Query(ctx, query)
}
