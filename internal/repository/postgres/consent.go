package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const (
	templateColumns = `
		id, clinic_id, title, description, version, fields, validity_days,
		is_active, created_at, updated_at`
	consentColumns = `
		c.id, c.user_id, c.treatment_id, c.template_id, c.template_version,
		c.responses, c.status, c.signed_at, c.approved_by, c.approved_at,
		c.rejection_reason, c.expires_at, c.created_at, c.updated_at`
)

type consentRepository struct {
	BaseRepository
}

func NewConsentRepository(base BaseRepository) repository.ConsentRepository {
	return &consentRepository{base}
}

func (r *consentRepository) CreateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error {
	query := `
		INSERT INTO consent_form_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	tpl.ID = uuid.New()
	tpl.CreatedAt = utcNow()
	tpl.UpdatedAt = tpl.CreatedAt
	if tpl.Version == 0 {
		tpl.Version = 1
	}

	_, err := r.db.ExecContext(ctx, query,
		tpl.ID,
		tpl.ClinicID,
		tpl.Title,
		tpl.Description,
		tpl.Version,
		tpl.Fields,
		tpl.ValidityDays,
		tpl.IsActive,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	return wrap(err, "create consent template")
}

func (r *consentRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error) {
	var tpl model.ConsentFormTemplate
	query := `SELECT ` + templateColumns + ` FROM consent_form_templates WHERE id = $1`
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, wrap(err, "get consent template")
	}
	return &tpl, nil
}

func (r *consentRepository) ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM consent_form_templates
		WHERE clinic_id = $1
		ORDER BY created_at DESC
	`
	var out []*model.ConsentFormTemplate
	if err := r.db.SelectContext(ctx, &out, query, clinicID); err != nil {
		return nil, wrap(err, "list consent templates")
	}
	return out, nil
}

func (r *consentRepository) UpdateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error {
	query := `
		UPDATE consent_form_templates
		SET title = $1, description = $2, version = $3, fields = $4,
			validity_days = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	tpl.UpdatedAt = utcNow()

	res, err := r.db.ExecContext(ctx, query,
		tpl.Title,
		tpl.Description,
		tpl.Version,
		tpl.Fields,
		tpl.ValidityDays,
		tpl.IsActive,
		tpl.UpdatedAt,
		tpl.ID,
	)
	if err != nil {
		return wrap(err, "update consent template")
	}
	return expectRows(res, "update consent template")
}

func (r *consentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PatientConsent, error) {
	var c model.PatientConsent
	query := `SELECT ` + consentColumns + ` FROM patient_consents c WHERE c.id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, wrap(err, "get consent")
	}
	return &c, nil
}

func (r *consentRepository) Latest(ctx context.Context, userID, treatmentID uuid.UUID) (*model.PatientConsent, error) {
	var c model.PatientConsent
	query := `
		SELECT ` + consentColumns + `
		FROM patient_consents c
		WHERE c.user_id = $1 AND c.treatment_id = $2
		ORDER BY c.created_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &c, query, userID, treatmentID); err != nil {
		return nil, wrap(err, "get latest consent")
	}
	return &c, nil
}

func (r *consentRepository) ValidApproval(ctx context.Context, userID, treatmentID uuid.UUID, at time.Time) (*model.PatientConsent, error) {
	var c model.PatientConsent
	query := `
		SELECT ` + consentColumns + `
		FROM patient_consents c
		WHERE c.user_id = $1 AND c.treatment_id = $2
			AND c.status = $3 AND c.expires_at > $4
		ORDER BY c.expires_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &c, query, userID, treatmentID, model.ConsentApproved, at); err != nil {
		return nil, wrap(err, "get valid consent approval")
	}
	return &c, nil
}

func (r *consentRepository) List(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conds = append(conds, fmt.Sprintf("c.user_id = $%d", len(args)))
	}
	if filters.TreatmentID != nil {
		args = append(args, *filters.TreatmentID)
		conds = append(conds, fmt.Sprintf("c.treatment_id = $%d", len(args)))
	}
	if filters.ClinicID != nil {
		args = append(args, *filters.ClinicID)
		conds = append(conds, fmt.Sprintf("t.clinic_id = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conds = append(conds, fmt.Sprintf("c.status = $%d", len(args)))
	}

	query := `
		SELECT ` + consentColumns + `
		FROM patient_consents c
		JOIN treatments t ON t.id = c.treatment_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY c.created_at DESC"

	var out []*model.PatientConsent
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, wrap(err, "list consents")
	}
	return out, nil
}

func (r *consentRepository) Submit(ctx context.Context, c *model.PatientConsent, cascade model.AppointmentConsentStatus) error {
	query := `
		INSERT INTO patient_consents (
			id, user_id, treatment_id, template_id, template_version, responses,
			status, signed_at, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	c.ID = uuid.New()
	c.CreatedAt = utcNow()
	c.UpdatedAt = c.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			c.ID,
			c.UserID,
			c.TreatmentID,
			c.TemplateID,
			c.TemplateVersion,
			c.Responses,
			c.Status,
			c.SignedAt,
			c.ExpiresAt,
			c.CreatedAt,
			c.UpdatedAt,
		)
		if err != nil {
			return wrap(err, "create consent")
		}
		return cascadeConsent(ctx, tx, c.UserID, c.TreatmentID, cascade, c.UpdatedAt)
	})
}

func (r *consentRepository) Review(ctx context.Context, c *model.PatientConsent, cascade model.AppointmentConsentStatus, event *model.OutboxEvent) error {
	query := `
		UPDATE patient_consents
		SET status = $1, approved_by = $2, approved_at = $3, rejection_reason = $4,
			expires_at = $5, updated_at = $6
		WHERE id = $7
	`
	c.UpdatedAt = utcNow()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			c.Status,
			c.ApprovedBy,
			c.ApprovedAt,
			c.RejectionReason,
			c.ExpiresAt,
			c.UpdatedAt,
			c.ID,
		)
		if err != nil {
			return wrap(err, "review consent")
		}
		if err := expectRows(res, "review consent"); err != nil {
			return err
		}
		if err := cascadeConsent(ctx, tx, c.UserID, c.TreatmentID, cascade, c.UpdatedAt); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, event)
	})
}

// cascadeConsent moves the consent status of the user's pending
// appointments for a treatment. While an approved consent is still valid
// the appointments stay APPROVED whatever else is submitted or rejected.
func cascadeConsent(ctx context.Context, tx *sqlx.Tx, userID, treatmentID uuid.UUID, status model.AppointmentConsentStatus, at time.Time) error {
	query := `
		UPDATE appointments
		SET consent_status = $1, updated_at = $2
		WHERE user_id = $3 AND treatment_id = $4 AND status = $5
	`
	args := []interface{}{status, at, userID, treatmentID, model.AppointmentPending}
	if status != model.AppointmentConsentApproved {
		query += `
		AND NOT EXISTS (
			SELECT 1 FROM patient_consents pc
			WHERE pc.user_id = $3 AND pc.treatment_id = $4
				AND pc.status = $6 AND pc.expires_at > $2
		)`
		args = append(args, model.ConsentApproved)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return wrap(err, "update appointment consent status")
}
