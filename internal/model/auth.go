package model

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/pkg/auth"
)

type LoginRequest struct {
	Email    string           `json:"email" binding:"required,email"`
	Password string           `json:"password" binding:"required"`
	Kind     auth.SubjectKind `json:"kind" binding:"omitempty,oneof=user professional clinic"`
}

type RegisterRequest struct {
	Email           string     `json:"email" binding:"required,email"`
	Password        string     `json:"password" binding:"required,min=8,max=72"`
	FirstName       string     `json:"first_name" binding:"required,max=100"`
	LastName        string     `json:"last_name" binding:"max=100"`
	Phone           *string    `json:"phone" binding:"omitempty,phone"`
	PrimaryClinicID *uuid.UUID `json:"primary_clinic_id"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Tokens  *auth.TokenPair `json:"tokens"`
	Subject interface{}     `json:"subject,omitempty"`
}

// Principal is the authenticated caller attached to the request context.
// Exactly one of User, Professional or Clinic is set, matching Kind.
type Principal struct {
	ID           uuid.UUID        `json:"id"`
	Kind         auth.SubjectKind `json:"kind"`
	ClinicID     *uuid.UUID       `json:"clinic_id,omitempty"`
	User         *User            `json:"user,omitempty"`
	Professional *Professional    `json:"professional,omitempty"`
	Clinic       *Clinic          `json:"clinic,omitempty"`
}

// CanManageClinic reports whether the principal administers clinicID.
// Clinics manage themselves, professionals act for their own clinic.
func (p *Principal) CanManageClinic(clinicID uuid.UUID) bool {
	if p == nil || p.ClinicID == nil {
		return false
	}
	if p.Kind != auth.SubjectClinic && p.Kind != auth.SubjectProfessional {
		return false
	}
	return *p.ClinicID == clinicID
}

// Profile returns the loaded subject record
func (p *Principal) Profile() interface{} {
	switch p.Kind {
	case auth.SubjectUser:
		return p.User
	case auth.SubjectProfessional:
		return p.Professional
	default:
		return p.Clinic
	}
}
