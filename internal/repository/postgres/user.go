package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, date_of_birth,
	primary_clinic_id, medical_notes, loyalty_tier, beauty_points, is_vip,
	is_active, last_login_at, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone, date_of_birth,
			primary_clinic_id, medical_notes, loyalty_tier, beauty_points, is_vip,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	user.ID = uuid.New()
	user.CreatedAt = utcNow()
	user.UpdatedAt = user.CreatedAt
	user.LoyaltyTier = model.TierForPoints(user.BeautyPoints)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.DateOfBirth,
		user.PrimaryClinicID,
		user.MedicalNotes,
		user.LoyaltyTier,
		user.BeautyPoints,
		user.IsVIP,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return wrap(err, "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, wrap(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, wrap(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, date_of_birth = $4,
			primary_clinic_id = $5, medical_notes = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	user.UpdatedAt = utcNow()

	res, err := r.db.ExecContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.DateOfBirth,
		user.PrimaryClinicID,
		user.MedicalNotes,
		user.IsActive,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return wrap(err, "update user")
	}
	return expectRows(res, "update user")
}

func (r *userRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return wrap(err, "record login")
}

// creditPoints adds delta to the user's balance (floored at zero) and stores
// the tier derived from the new balance.
func creditPoints(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int, at time.Time) error {
	var balance int
	err := tx.GetContext(ctx, &balance, `
		UPDATE users
		SET beauty_points = GREATEST(beauty_points + $1, 0), updated_at = $2
		WHERE id = $3
		RETURNING beauty_points
	`, delta, at, userID)
	if err != nil {
		return wrap(err, "credit points")
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET loyalty_tier = $1 WHERE id = $2`,
		model.TierForPoints(balance), userID)
	return wrap(err, "update loyalty tier")
}

// syncVIP recomputes users.is_vip from the user's subscriptions
func syncVIP(ctx context.Context, tx sqlx.ExtContext, userID uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_vip = EXISTS(
			SELECT 1 FROM vip_subscriptions
			WHERE user_id = $1 AND status = 'ACTIVE' AND starts_at <= $2 AND ends_at > $2
		), updated_at = $2
		WHERE id = $1
	`, userID, at)
	return wrap(err, "sync vip flag")
}
