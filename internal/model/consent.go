package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type ConsentFieldType string

const (
	FieldText      ConsentFieldType = "TEXT"
	FieldCheckbox  ConsentFieldType = "CHECKBOX"
	FieldSignature ConsentFieldType = "SIGNATURE"
	FieldDate      ConsentFieldType = "DATE"
	FieldSelect    ConsentFieldType = "SELECT"
)

type ConsentField struct {
	Key      string           `json:"key" binding:"required,max=100"`
	Label    string           `json:"label" binding:"required,max=500"`
	Type     ConsentFieldType `json:"type" binding:"required,oneof=TEXT CHECKBOX SIGNATURE DATE SELECT"`
	Required bool             `json:"required"`
	Options  []string         `json:"options,omitempty" binding:"omitempty,max=50,dive,max=200"`
}

type ConsentFields []ConsentField

func (f ConsentFields) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return jsonValue(f)
}

func (f *ConsentFields) Scan(src interface{}) error {
	return jsonScan(src, f)
}

// ConsentFormTemplate is a versioned form definition. Version increments on
// every content change so signed consents keep pointing at what was signed.
type ConsentFormTemplate struct {
	Base
	ClinicID     uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	Version      int           `db:"version" json:"version"`
	Fields       ConsentFields `db:"fields" json:"fields"`
	ValidityDays int           `db:"validity_days" json:"validity_days"`
	IsActive     bool          `db:"is_active" json:"is_active"`
}

type CreateConsentTemplateRequest struct {
	Title        string         `json:"title" binding:"required,max=200"`
	Description  string         `json:"description" binding:"max=4000"`
	Fields       []ConsentField `json:"fields" binding:"required,min=1,max=100,dive"`
	ValidityDays int            `json:"validity_days" binding:"required,gte=1,lte=3650"`
}

type UpdateConsentTemplateRequest struct {
	Title        *string        `json:"title" binding:"omitempty,max=200"`
	Description  *string        `json:"description" binding:"omitempty,max=4000"`
	Fields       []ConsentField `json:"fields" binding:"omitempty,min=1,max=100,dive"`
	ValidityDays *int           `json:"validity_days" binding:"omitempty,gte=1,lte=3650"`
	IsActive     *bool          `json:"is_active"`
}

type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "PENDING"
	ConsentSigned   ConsentStatus = "SIGNED"
	ConsentApproved ConsentStatus = "APPROVED"
	ConsentRejected ConsentStatus = "REJECTED"
)

// PatientConsent is a user's response to a template for one treatment
type PatientConsent struct {
	Base
	UserID          uuid.UUID     `db:"user_id" json:"user_id"`
	TreatmentID     uuid.UUID     `db:"treatment_id" json:"treatment_id"`
	TemplateID      uuid.UUID     `db:"template_id" json:"template_id"`
	TemplateVersion int           `db:"template_version" json:"template_version"`
	Responses       JSONMap       `db:"responses" json:"responses"`
	Status          ConsentStatus `db:"status" json:"status"`
	SignedAt        *time.Time    `db:"signed_at" json:"signed_at,omitempty"`
	ApprovedBy      *uuid.UUID    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ExpiresAt       *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
}

// IsValidAt reports whether the consent clears the booking gate at t
func (c *PatientConsent) IsValidAt(t time.Time) bool {
	return c.Status == ConsentApproved && c.ExpiresAt != nil && c.ExpiresAt.After(t)
}

type SubmitConsentRequest struct {
	TreatmentID uuid.UUID `json:"treatment_id" binding:"required"`
	Responses   JSONMap   `json:"responses" binding:"required"`
	Signed      bool      `json:"signed"`
}

type ReviewConsentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type ConsentFilters struct {
	UserID      *uuid.UUID
	ClinicID    *uuid.UUID
	TreatmentID *uuid.UUID
	Status      ConsentStatus
}
