package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const professionalColumns = `
	id, clinic_id, email, password_hash, first_name, last_name, title,
	license_number, specialties, certifications, employment_type,
	is_medical_staff, rating, is_active, created_at, updated_at`

type professionalRepository struct {
	BaseRepository
}

func NewProfessionalRepository(base BaseRepository) repository.ProfessionalRepository {
	return &professionalRepository{base}
}

func (r *professionalRepository) Create(ctx context.Context, p *model.Professional) error {
	query := `
		INSERT INTO professionals (` + professionalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	p.ID = uuid.New()
	p.CreatedAt = utcNow()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ClinicID,
		p.Email,
		p.PasswordHash,
		p.FirstName,
		p.LastName,
		p.Title,
		p.LicenseNumber,
		p.Specialties,
		p.Certifications,
		p.EmploymentType,
		p.IsMedicalStaff,
		p.Rating,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return wrap(err, "create professional")
}

func (r *professionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	var p model.Professional
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, wrap(err, "get professional")
	}
	return &p, nil
}

func (r *professionalRepository) GetByEmail(ctx context.Context, email string) (*model.Professional, error) {
	var p model.Professional
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &p, query, email); err != nil {
		return nil, wrap(err, "get professional by email")
	}
	return &p, nil
}

func (r *professionalRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error) {
	query := `
		SELECT ` + professionalColumns + `
		FROM professionals
		WHERE clinic_id = $1 AND ($2 = false OR is_active = true)
		ORDER BY rating DESC, last_name ASC
	`
	var out []*model.Professional
	if err := r.db.SelectContext(ctx, &out, query, clinicID, activeOnly); err != nil {
		return nil, wrap(err, "list professionals")
	}
	return out, nil
}

func (r *professionalRepository) Update(ctx context.Context, p *model.Professional) error {
	query := `
		UPDATE professionals
		SET first_name = $1, last_name = $2, title = $3, license_number = $4,
			specialties = $5, certifications = $6, employment_type = $7,
			is_medical_staff = $8, rating = $9, is_active = $10, updated_at = $11
		WHERE id = $12
	`
	p.UpdatedAt = utcNow()

	res, err := r.db.ExecContext(ctx, query,
		p.FirstName,
		p.LastName,
		p.Title,
		p.LicenseNumber,
		p.Specialties,
		p.Certifications,
		p.EmploymentType,
		p.IsMedicalStaff,
		p.Rating,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return wrap(err, "update professional")
	}
	return expectRows(res, "update professional")
}
