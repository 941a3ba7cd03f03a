package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return insertOutbox(ctx, r.db, event)
}

// GetPendingEvents returns due events oldest first
func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int, at time.Time) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			error, retry_count, next_retry_at, created_at, processed_at
		FROM outbox_events
		WHERE status = $1
		AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at ASC
		LIMIT $3
	`
	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, at, limit); err != nil {
		return nil, wrap(err, "get pending events")
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, processed_at = $2, error = NULL, next_retry_at = NULL
		WHERE id = $3
	`, model.OutboxStatusProcessed, at, id)
	if err != nil {
		return wrap(err, "mark event processed")
	}
	return expectRows(res, "mark event processed")
}

// MarkFailed records a delivery failure. A nil nextRetryAt gives up on the event.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryCount int, nextRetryAt *time.Time) error {
	status := model.OutboxStatusPending
	if nextRetryAt == nil {
		status = model.OutboxStatusFailed
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error = $2, retry_count = $3, next_retry_at = $4
		WHERE id = $5
	`, status, errMsg, retryCount, nextRetryAt, id)
	if err != nil {
		return wrap(err, "mark event failed")
	}
	return expectRows(res, "mark event failed")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, wrap(err, "delete processed events")
	}
	return res.RowsAffected()
}
