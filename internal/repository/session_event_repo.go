package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"giantylive-web/internal/event"
	"giantylive-web/internal/model"
)

type SessionEventRepository struct {
	pool *pgxpool.Pool
}

func NewSessionEventRepository(pool *pgxpool.Pool) *SessionEventRepository {
	return &SessionEventRepository{pool: pool}
}

func (r *SessionEventRepository) Insert(ctx context.Context, e event.Event) error {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		id = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO session_events
		 (id, event_type, occurred_at, user_id, email, locale, request_id, client_ip, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		id, string(e.Type), e.OccurredAt,
		e.UserID, e.Email, e.Locale, e.RequestID, e.ClientIP, e.Detail)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

func (r *SessionEventRepository) Query(ctx context.Context, query model.SessionEventQuery) ([]event.Event, model.Meta, error) {
	query = normalizeQuery(query)

	where, args := buildFilter(query)
	argIdx := len(args) + 1

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM session_events %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count session events: %w", err)
	}
	meta := model.NewMeta(query.Page, query.Limit, total)

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT id, event_type, occurred_at, user_id, email, locale, request_id, client_ip, detail
		 FROM session_events %s
		 ORDER BY occurred_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		var (
			e         event.Event
			id        uuid.UUID
			eventType string
		)
		if err := rows.Scan(
			&id, &eventType, &e.OccurredAt,
			&e.UserID, &e.Email, &e.Locale, &e.RequestID, &e.ClientIP, &e.Detail,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan session event: %w", err)
		}
		e.ID = id.String()
		e.Type = event.Type(eventType)
		e.OccurredAt = e.OccurredAt.UTC()
		events = append(events, e)
	}

	return events, meta, rows.Err()
}

const maxPage = 10000

func normalizeQuery(query model.SessionEventQuery) model.SessionEventQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Page > maxPage {
		query.Page = maxPage
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}
	return query
}

// buildFilter turns the non-empty query fields into numbered predicates.
func buildFilter(query model.SessionEventQuery) ([]string, []any) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if typ := strings.TrimSpace(query.Type); typ != "" {
		where = append(where, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, typ)
		argIdx++
	}
	if userID := strings.TrimSpace(query.UserID); userID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, userID)
		argIdx++
	}
	if !query.From.IsZero() {
		where = append(where, fmt.Sprintf("occurred_at >= $%d", argIdx))
		args = append(args, query.From.UTC())
		argIdx++
	}
	if !query.To.IsZero() {
		where = append(where, fmt.Sprintf("occurred_at <= $%d", argIdx))
		args = append(args, query.To.UTC())
	}

	return where, args
}
