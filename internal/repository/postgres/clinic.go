package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const clinicColumns = `
	id, name, slug, email, password_hash, phone, address, city, description,
	business_hours, is_verified, is_active, vip_program_enabled,
	online_booking_enabled, created_at, updated_at`

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (` + clinicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	clinic.ID = uuid.New()
	clinic.CreatedAt = utcNow()
	clinic.UpdatedAt = clinic.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Slug,
		clinic.Email,
		clinic.PasswordHash,
		clinic.Phone,
		clinic.Address,
		clinic.City,
		clinic.Description,
		clinic.BusinessHours,
		clinic.IsVerified,
		clinic.IsActive,
		clinic.VIPProgramEnabled,
		clinic.OnlineBookingEnabled,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	return wrap(err, "create clinic")
}

func (r *clinicRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE ` + where
	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, arg); err != nil {
		return nil, wrap(err, "get clinic")
	}
	return &clinic, nil
}

func (r *clinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *clinicRepository) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

func (r *clinicRepository) GetByEmail(ctx context.Context, email string) (*model.Clinic, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *clinicRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM clinics WHERE slug = $1)`, slug)
	if err != nil {
		return false, wrap(err, "check clinic slug")
	}
	return exists, nil
}

func (r *clinicRepository) List(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.ActiveOnly {
		conds = append(conds, "is_active = true")
	}
	if filters.City != "" {
		args = append(args, filters.City)
		conds = append(conds, fmt.Sprintf("lower(city) = lower($%d)", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clinics`+where, args...); err != nil {
		return nil, 0, wrap(err, "count clinics")
	}

	page := filters.Pagination.Normalize()
	args = append(args, page.PageSize, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM clinics%s ORDER BY is_verified DESC, name ASC LIMIT $%d OFFSET $%d`,
		clinicColumns, where, len(args)-1, len(args))

	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query, args...); err != nil {
		return nil, 0, wrap(err, "list clinics")
	}
	return clinics, total, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, phone = $2, address = $3, city = $4, description = $5,
			business_hours = $6, is_verified = $7, is_active = $8,
			vip_program_enabled = $9, online_booking_enabled = $10, updated_at = $11
		WHERE id = $12
	`
	clinic.UpdatedAt = utcNow()

	res, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Phone,
		clinic.Address,
		clinic.City,
		clinic.Description,
		clinic.BusinessHours,
		clinic.IsVerified,
		clinic.IsActive,
		clinic.VIPProgramEnabled,
		clinic.OnlineBookingEnabled,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return wrap(err, "update clinic")
	}
	return expectRows(res, "update clinic")
}
