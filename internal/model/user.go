package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// LoyaltyTier is ordered BRONZE < SILVER < GOLD
type LoyaltyTier string

const (
	TierBronze LoyaltyTier = "BRONZE"
	TierSilver LoyaltyTier = "SILVER"
	TierGold   LoyaltyTier = "GOLD"
)

const (
	SilverTierPoints = 250
	GoldTierPoints   = 500
)

// TierForPoints derives the loyalty tier from a point balance
func TierForPoints(points int) LoyaltyTier {
	switch {
	case points >= GoldTierPoints:
		return TierGold
	case points >= SilverTierPoints:
		return TierSilver
	default:
		return TierBronze
	}
}

func (t LoyaltyTier) Rank() int {
	switch t {
	case TierGold:
		return 2
	case TierSilver:
		return 1
	default:
		return 0
	}
}

// MedicalNotes holds the user's self-reported medical risk flags
type MedicalNotes struct {
	Allergies   []string `json:"allergies,omitempty" binding:"omitempty,max=50,dive,max=200"`
	Medications []string `json:"medications,omitempty" binding:"omitempty,max=50,dive,max=200"`
	Conditions  []string `json:"conditions,omitempty" binding:"omitempty,max=50,dive,max=200"`
	Notes       string   `json:"notes,omitempty" binding:"max=2000"`
}

func (m MedicalNotes) Value() (driver.Value, error) {
	return jsonValue(m)
}

func (m *MedicalNotes) Scan(src interface{}) error {
	return jsonScan(src, m)
}

// HasRiskFlags reports whether any allergy, medication or condition is recorded
func (m MedicalNotes) HasRiskFlags() bool {
	return len(m.Allergies) > 0 || len(m.Medications) > 0 || len(m.Conditions) > 0
}

// User is an end customer. LoyaltyTier and IsVIP are derived columns: the
// tier follows BeautyPoints and the VIP flag follows active subscriptions.
type User struct {
	Base
	Email           string       `json:"email" db:"email"`
	PasswordHash    string       `json:"-" db:"password_hash"`
	FirstName       string       `json:"first_name" db:"first_name"`
	LastName        string       `json:"last_name" db:"last_name"`
	Phone           *string      `json:"phone,omitempty" db:"phone"`
	DateOfBirth     *time.Time   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	PrimaryClinicID *uuid.UUID   `json:"primary_clinic_id,omitempty" db:"primary_clinic_id"`
	MedicalNotes    MedicalNotes `json:"medical_notes" db:"medical_notes"`
	LoyaltyTier     LoyaltyTier  `json:"loyalty_tier" db:"loyalty_tier"`
	BeautyPoints    int          `json:"beauty_points" db:"beauty_points"`
	IsVIP           bool         `json:"is_vip" db:"is_vip"`
	IsActive        bool         `json:"is_active" db:"is_active"`
	LastLoginAt     *time.Time   `json:"last_login_at,omitempty" db:"last_login_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// VIPMultiplier is the point-earning multiplier for the user
func (u *User) VIPMultiplier() int {
	if u.IsVIP {
		return 2
	}
	return 1
}

// AddPoints credits points and re-derives the tier. Balances never go below zero.
func (u *User) AddPoints(delta int) {
	u.BeautyPoints += delta
	if u.BeautyPoints < 0 {
		u.BeautyPoints = 0
	}
	u.LoyaltyTier = TierForPoints(u.BeautyPoints)
}

type UpdateUserRequest struct {
	FirstName       *string       `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName        *string       `json:"last_name" binding:"omitempty,max=100"`
	Phone           *string       `json:"phone" binding:"omitempty,phone"`
	DateOfBirth     *time.Time    `json:"date_of_birth"`
	PrimaryClinicID *uuid.UUID    `json:"primary_clinic_id"`
	MedicalNotes    *MedicalNotes `json:"medical_notes"`
}
