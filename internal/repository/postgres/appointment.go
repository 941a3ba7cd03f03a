package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const appointmentColumns = `
	a.id, a.user_id, a.clinic_id, a.professional_id, a.treatment_id, a.date,
	a.start_time, a.end_time, a.status, a.consent_status, a.price_charged,
	a.points_earned, a.notes, a.cancel_reason, a.completed_at, a.created_at,
	a.updated_at`

const appointmentDetailFrom = `
	FROM appointments a
	JOIN treatments t ON t.id = a.treatment_id
	JOIN professionals p ON p.id = a.professional_id
	JOIN clinics c ON c.id = a.clinic_id`

const appointmentDetailColumns = appointmentColumns + `,
	t.name AS treatment_name,
	trim(p.first_name || ' ' || p.last_name) AS professional_name,
	c.name AS clinic_name`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment, event *model.OutboxEvent) error {
	query := `
		INSERT INTO appointments (
			id, user_id, clinic_id, professional_id, treatment_id, date,
			start_time, end_time, status, consent_status, price_charged,
			points_earned, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = utcNow()
	a.UpdatedAt = a.CreatedAt
	if event != nil {
		event.AggregateID = a.ID
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Serialize bookings per professional so the overlap check and the
		// insert see the same schedule.
		if _, err := tx.ExecContext(ctx, `SELECT id FROM professionals WHERE id = $1 FOR UPDATE`, a.ProfessionalID); err != nil {
			return wrap(err, "lock professional")
		}
		var overlap bool
		if err := tx.GetContext(ctx, &overlap, overlapQuery, a.ProfessionalID, a.Date, a.StartTime, a.EndTime, nil); err != nil {
			return wrap(err, "check appointment overlap")
		}
		if overlap {
			return fmt.Errorf("professional %s is booked at %s: %w", a.ProfessionalID, a.StartTime, repository.ErrConflict)
		}

		_, err := tx.ExecContext(ctx, query,
			a.ID,
			a.UserID,
			a.ClinicID,
			a.ProfessionalID,
			a.TreatmentID,
			a.Date,
			a.StartTime,
			a.EndTime,
			a.Status,
			a.ConsentStatus,
			a.PriceCharged,
			a.PointsEarned,
			a.Notes,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return wrap(err, "create appointment")
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, wrap(err, "get appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filters.UserID != nil {
		add("a.user_id = $%d", *filters.UserID)
	}
	if filters.ClinicID != nil {
		add("a.clinic_id = $%d", *filters.ClinicID)
	}
	if filters.ProfessionalID != nil {
		add("a.professional_id = $%d", *filters.ProfessionalID)
	}
	if filters.Status != "" {
		add("a.status = $%d", filters.Status)
	}
	if filters.From != nil {
		add("a.date >= $%d", *filters.From)
	}
	if filters.To != nil {
		add("a.date <= $%d", *filters.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments a`+where, args...); err != nil {
		return nil, 0, wrap(err, "count appointments")
	}

	page := filters.Pagination.Normalize()
	args = append(args, page.PageSize, page.Offset())
	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY a.date DESC, a.start_time DESC LIMIT $%d OFFSET $%d`,
		appointmentDetailColumns, appointmentDetailFrom, where, len(args)-1, len(args))

	var out []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, wrap(err, "list appointments")
	}
	return out, total, nil
}

const overlapQuery = `
	SELECT EXISTS(
		SELECT 1 FROM appointments
		WHERE professional_id = $1
		AND date = $2
		AND status NOT IN ('CANCELLED', 'COMPLETED')
		AND start_time < $4 AND end_time > $3
		AND ($5::uuid IS NULL OR id <> $5)
	)
`

func (r *appointmentRepository) HasOverlap(ctx context.Context, professionalID uuid.UUID, date time.Time, start, end string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, overlapQuery, professionalID, date, start, end, excludeID); err != nil {
		return false, wrap(err, "check appointment overlap")
	}
	return exists, nil
}

func (r *appointmentRepository) NextUpcoming(ctx context.Context, userID uuid.UUID, at time.Time) (*model.AppointmentDetail, error) {
	query := `
		SELECT ` + appointmentDetailColumns + appointmentDetailFrom + `
		WHERE a.user_id = $1
		AND a.status NOT IN ('CANCELLED', 'COMPLETED')
		AND (a.date > $2 OR (a.date = $2 AND a.start_time >= $3))
		ORDER BY a.date ASC, a.start_time ASC
		LIMIT 1
	`
	var a model.AppointmentDetail
	err := r.db.GetContext(ctx, &a, query, userID, at.Format("2006-01-02"), at.Format("15:04"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "get next appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) ApplyStatusChange(ctx context.Context, change *model.StatusChange, event *model.OutboxEvent) error {
	a := change.Appointment
	a.UpdatedAt = utcNow()

	query := `
		UPDATE appointments
		SET status = $1, consent_status = $2, points_earned = $3, cancel_reason = $4,
			completed_at = $5, updated_at = $6
		WHERE id = $7 AND status = $8
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query,
			a.Status,
			a.ConsentStatus,
			a.PointsEarned,
			a.CancelReason,
			a.CompletedAt,
			a.UpdatedAt,
			a.ID,
			change.From,
		)
		if err != nil {
			return wrap(err, "update appointment status")
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("appointment %s is no longer %s: %w", a.ID, change.From, repository.ErrConflict)
		}

		if change.PointsDelta != 0 {
			if err := creditPoints(ctx, tx, a.UserID, change.PointsDelta, a.UpdatedAt); err != nil {
				return err
			}
		}
		return insertOutbox(ctx, tx, event)
	})
}

func (r *appointmentRepository) PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.PointsEntry, error) {
	query := `
		SELECT a.id AS appointment_id, t.name AS treatment_name, a.points_earned,
			COALESCE(a.completed_at, a.updated_at) AS completed_at
		FROM appointments a
		JOIN treatments t ON t.id = a.treatment_id
		WHERE a.user_id = $1 AND a.status = 'COMPLETED' AND a.points_earned > 0
		ORDER BY COALESCE(a.completed_at, a.updated_at) DESC
		LIMIT $2
	`
	out := []model.PointsEntry{}
	if err := r.db.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, wrap(err, "list points history")
	}
	return out, nil
}
