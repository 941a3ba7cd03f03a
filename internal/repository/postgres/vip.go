package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const vipColumns = `id, user_id, clinic_id, plan, status, starts_at, ends_at, created_at, updated_at`

type vipRepository struct {
	BaseRepository
}

func NewVIPRepository(base BaseRepository) repository.VIPRepository {
	return &vipRepository{base}
}

func (r *vipRepository) Create(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error {
	query := `
		INSERT INTO vip_subscriptions (` + vipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = utcNow()
	sub.UpdatedAt = sub.CreatedAt
	if event != nil {
		event.AggregateID = sub.ID
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			sub.ID,
			sub.UserID,
			sub.ClinicID,
			sub.Plan,
			sub.Status,
			sub.StartsAt,
			sub.EndsAt,
			sub.CreatedAt,
			sub.UpdatedAt,
		)
		if err != nil {
			return wrap(err, "create vip subscription")
		}
		if err := syncVIP(ctx, tx, sub.UserID, sub.CreatedAt); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *vipRepository) Cancel(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error {
	sub.UpdatedAt = utcNow()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE vip_subscriptions SET status = $1, updated_at = $2
			WHERE id = $3 AND status = 'ACTIVE'
		`, sub.Status, sub.UpdatedAt, sub.ID)
		if err != nil {
			return wrap(err, "cancel vip subscription")
		}
		if err := expectRows(res, "cancel vip subscription"); err != nil {
			return err
		}
		if err := syncVIP(ctx, tx, sub.UserID, sub.UpdatedAt); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *vipRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VIPSubscription, error) {
	var sub model.VIPSubscription
	if err := r.db.GetContext(ctx, &sub, `SELECT `+vipColumns+` FROM vip_subscriptions WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "get vip subscription")
	}
	return &sub, nil
}

func (r *vipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.VIPSubscription, error) {
	out := []model.VIPSubscription{}
	query := `SELECT ` + vipColumns + ` FROM vip_subscriptions WHERE user_id = $1 ORDER BY starts_at DESC`
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, wrap(err, "list vip subscriptions")
	}
	return out, nil
}

func (r *vipRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) ([]model.VIPSubscription, error) {
	out := []model.VIPSubscription{}
	query := `
		SELECT ` + vipColumns + `
		FROM vip_subscriptions
		WHERE user_id = $1 AND status = 'ACTIVE' AND starts_at <= $2 AND ends_at > $2
		ORDER BY ends_at DESC
	`
	if err := r.db.SelectContext(ctx, &out, query, userID, at); err != nil {
		return nil, wrap(err, "list active vip subscriptions")
	}
	return out, nil
}

func (r *vipRepository) HasActive(ctx context.Context, userID, clinicID uuid.UUID, at time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM vip_subscriptions
			WHERE user_id = $1 AND clinic_id = $2 AND status = 'ACTIVE' AND ends_at > $3
		)
	`, userID, clinicID, at)
	if err != nil {
		return false, wrap(err, "check active vip subscription")
	}
	return exists, nil
}

func (r *vipRepository) ExpireDue(ctx context.Context, at time.Time) (int64, error) {
	var expired int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var users []uuid.UUID
		err := tx.SelectContext(ctx, &users, `
			UPDATE vip_subscriptions SET status = 'EXPIRED', updated_at = $1
			WHERE status = 'ACTIVE' AND ends_at <= $1
			RETURNING user_id
		`, at)
		if err != nil {
			return wrap(err, "expire vip subscriptions")
		}
		expired = int64(len(users))

		seen := make(map[uuid.UUID]struct{}, len(users))
		for _, id := range users {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if err := syncVIP(ctx, tx, id, at); err != nil {
				return err
			}
		}
		return nil
	})
	return expired, err
}
