package model

import (
	"github.com/google/uuid"
)

// RiskLevel is ordered LOW < MEDIUM < HIGH < MEDICAL
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskMedical RiskLevel = "MEDICAL"
)

func (r RiskLevel) Rank() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskMedical:
		return 3
	default:
		return 0
	}
}

// RequiresMedicalOversight is true for HIGH and MEDICAL treatments
func (r RiskLevel) RequiresMedicalOversight() bool {
	return r.Rank() >= RiskHigh.Rank()
}

type Treatment struct {
	Base
	ClinicID              uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Name                  string     `db:"name" json:"name"`
	Description           string     `db:"description" json:"description"`
	Category              string     `db:"category" json:"category"`
	RiskLevel             RiskLevel  `db:"risk_level" json:"risk_level"`
	DurationMinutes       int        `db:"duration_minutes" json:"duration_minutes"`
	Price                 float64    `db:"price" json:"price"`
	VIPPrice              *float64   `db:"vip_price" json:"vip_price,omitempty"`
	VIPOnly               bool       `db:"vip_only" json:"vip_only"`
	RequiresConsultation  bool       `db:"requires_consultation" json:"requires_consultation"`
	RequiresMedicalStaff  bool       `db:"requires_medical_staff" json:"requires_medical_staff"`
	ConsentFormRequired   bool       `db:"consent_form_required" json:"consent_form_required"`
	ConsentFormTemplateID *uuid.UUID `db:"consent_form_template_id" json:"consent_form_template_id,omitempty"`
	BeautyPointsEarned    int        `db:"beauty_points_earned" json:"beauty_points_earned"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	IsFeatured            bool       `db:"is_featured" json:"is_featured"`
}

// Normalize enforces the risk gates: HIGH and MEDICAL treatments always need
// a consultation and medical staff.
func (t *Treatment) Normalize() {
	if t.RiskLevel == "" {
		t.RiskLevel = RiskLow
	}
	if t.RiskLevel.RequiresMedicalOversight() {
		t.RequiresConsultation = true
		t.RequiresMedicalStaff = true
	}
}

// PriceFor returns the price a customer pays. Members of the clinic's VIP
// program get the VIP price when one is set.
func (t *Treatment) PriceFor(member bool) float64 {
	if member && t.VIPPrice != nil {
		return *t.VIPPrice
	}
	return t.Price
}

type CreateTreatmentRequest struct {
	Name                  string     `json:"name" binding:"required,max=200"`
	Description           string     `json:"description" binding:"max=4000"`
	Category              string     `json:"category" binding:"max=100"`
	RiskLevel             RiskLevel  `json:"risk_level" binding:"required,oneof=LOW MEDIUM HIGH MEDICAL"`
	DurationMinutes       int        `json:"duration_minutes" binding:"required,gte=5,lte=600"`
	Price                 float64    `json:"price" binding:"gte=0"`
	VIPPrice              *float64   `json:"vip_price" binding:"omitempty,gte=0"`
	VIPOnly               bool       `json:"vip_only"`
	RequiresConsultation  bool       `json:"requires_consultation"`
	RequiresMedicalStaff  bool       `json:"requires_medical_staff"`
	ConsentFormRequired   bool       `json:"consent_form_required"`
	ConsentFormTemplateID *uuid.UUID `json:"consent_form_template_id"`
	BeautyPointsEarned    int        `json:"beauty_points_earned" binding:"gte=0,lte=10000"`
	IsFeatured            bool       `json:"is_featured"`
}

type UpdateTreatmentRequest struct {
	Name                  *string    `json:"name" binding:"omitempty,max=200"`
	Description           *string    `json:"description" binding:"omitempty,max=4000"`
	Category              *string    `json:"category" binding:"omitempty,max=100"`
	RiskLevel             *RiskLevel `json:"risk_level" binding:"omitempty,oneof=LOW MEDIUM HIGH MEDICAL"`
	DurationMinutes       *int       `json:"duration_minutes" binding:"omitempty,gte=5,lte=600"`
	Price                 *float64   `json:"price" binding:"omitempty,gte=0"`
	VIPPrice              *float64   `json:"vip_price" binding:"omitempty,gte=0"`
	VIPOnly               *bool      `json:"vip_only"`
	RequiresConsultation  *bool      `json:"requires_consultation"`
	RequiresMedicalStaff  *bool      `json:"requires_medical_staff"`
	ConsentFormRequired   *bool      `json:"consent_form_required"`
	ConsentFormTemplateID *uuid.UUID `json:"consent_form_template_id"`
	BeautyPointsEarned    *int       `json:"beauty_points_earned" binding:"omitempty,gte=0,lte=10000"`
	IsActive              *bool      `json:"is_active"`
	IsFeatured            *bool      `json:"is_featured"`
}

type TreatmentFilters struct {
	ClinicID     *uuid.UUID
	Category     string
	ActiveOnly   bool
	FeaturedOnly bool
	IncludeVIP   bool
	Limit        int
}
