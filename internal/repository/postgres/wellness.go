package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

type wellnessRepository struct {
	BaseRepository
}

func NewWellnessRepository(base BaseRepository) repository.WellnessRepository {
	return &wellnessRepository{base}
}

func (r *wellnessRepository) Create(ctx context.Context, tip *model.WellnessTip) error {
	tip.ID = uuid.New()
	tip.CreatedAt = utcNow()
	tip.UpdatedAt = tip.CreatedAt
	tip.IsActive = true

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wellness_tips (id, title, content, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tip.ID, tip.Title, tip.Content, tip.Category, tip.IsActive, tip.CreatedAt, tip.UpdatedAt)
	return wrap(err, "create wellness tip")
}

func (r *wellnessRepository) Latest(ctx context.Context) (*model.WellnessTip, error) {
	var tip model.WellnessTip
	err := r.db.GetContext(ctx, &tip, `
		SELECT id, title, content, category, is_active, created_at, updated_at
		FROM wellness_tips
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "get latest wellness tip")
	}
	return &tip, nil
}

func (r *wellnessRepository) List(ctx context.Context, limit int) ([]*model.WellnessTip, error) {
	var out []*model.WellnessTip
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, title, content, category, is_active, created_at, updated_at
		FROM wellness_tips
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, wrap(err, "list wellness tips")
	}
	return out, nil
}
