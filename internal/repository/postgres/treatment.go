package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const treatmentColumns = `
	id, clinic_id, name, description, category, risk_level, duration_minutes,
	price, vip_price, vip_only, requires_consultation, requires_medical_staff,
	consent_form_required, consent_form_template_id, beauty_points_earned,
	is_active, is_featured, created_at, updated_at`

type treatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(base BaseRepository) repository.TreatmentRepository {
	return &treatmentRepository{base}
}

func (r *treatmentRepository) Create(ctx context.Context, t *model.Treatment) error {
	query := `
		INSERT INTO treatments (` + treatmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	t.ID = uuid.New()
	t.CreatedAt = utcNow()
	t.UpdatedAt = t.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ClinicID,
		t.Name,
		t.Description,
		t.Category,
		t.RiskLevel,
		t.DurationMinutes,
		t.Price,
		t.VIPPrice,
		t.VIPOnly,
		t.RequiresConsultation,
		t.RequiresMedicalStaff,
		t.ConsentFormRequired,
		t.ConsentFormTemplateID,
		t.BeautyPointsEarned,
		t.IsActive,
		t.IsFeatured,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return wrap(err, "create treatment")
}

func (r *treatmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	var t model.Treatment
	query := `SELECT ` + treatmentColumns + ` FROM treatments WHERE id = $1`
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, wrap(err, "get treatment")
	}
	return &t, nil
}

func (r *treatmentRepository) List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.ClinicID != nil {
		args = append(args, *filters.ClinicID)
		conds = append(conds, fmt.Sprintf("clinic_id = $%d", len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filters.ActiveOnly {
		conds = append(conds, "is_active = true")
	}
	if filters.FeaturedOnly {
		conds = append(conds, "is_featured = true")
	}
	if !filters.IncludeVIP {
		conds = append(conds, "vip_only = false")
	}

	query := `SELECT ` + treatmentColumns + ` FROM treatments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY is_featured DESC, created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var out []*model.Treatment
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, wrap(err, "list treatments")
	}
	return out, nil
}

func (r *treatmentRepository) Update(ctx context.Context, t *model.Treatment) error {
	query := `
		UPDATE treatments
		SET name = $1, description = $2, category = $3, risk_level = $4,
			duration_minutes = $5, price = $6, vip_price = $7, vip_only = $8,
			requires_consultation = $9, requires_medical_staff = $10,
			consent_form_required = $11, consent_form_template_id = $12,
			beauty_points_earned = $13, is_active = $14, is_featured = $15,
			updated_at = $16
		WHERE id = $17
	`
	t.UpdatedAt = utcNow()

	res, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Description,
		t.Category,
		t.RiskLevel,
		t.DurationMinutes,
		t.Price,
		t.VIPPrice,
		t.VIPOnly,
		t.RequiresConsultation,
		t.RequiresMedicalStaff,
		t.ConsentFormRequired,
		t.ConsentFormTemplateID,
		t.BeautyPointsEarned,
		t.IsActive,
		t.IsFeatured,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return wrap(err, "update treatment")
	}
	return expectRows(res, "update treatment")
}
