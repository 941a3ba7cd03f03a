package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentPending    AppointmentStatus = "PENDING"
	AppointmentConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentCompleted  AppointmentStatus = "COMPLETED"
	AppointmentCancelled  AppointmentStatus = "CANCELLED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:    {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed:  {AppointmentInProgress, AppointmentCancelled},
	AppointmentInProgress: {AppointmentCompleted, AppointmentCancelled},
}

// IsTerminal reports whether no further transition is possible
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// CanTransitionTo reports whether the lifecycle allows s -> next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AppointmentConsentStatus mirrors whether the required consent exists
type AppointmentConsentStatus string

const (
	AppointmentConsentPending   AppointmentConsentStatus = "PENDING"
	AppointmentConsentCompleted AppointmentConsentStatus = "COMPLETED"
	AppointmentConsentApproved  AppointmentConsentStatus = "APPROVED"
)

// ConsentStatusFor derives an appointment's consent status from the treatment
// and the user's latest consent for it (nil when none exists).
func ConsentStatusFor(t *Treatment, consent *PatientConsent, at time.Time) AppointmentConsentStatus {
	if !t.ConsentFormRequired {
		return AppointmentConsentApproved
	}
	if consent == nil {
		return AppointmentConsentPending
	}
	if consent.IsValidAt(at) {
		return AppointmentConsentApproved
	}
	if consent.Status == ConsentSigned {
		return AppointmentConsentCompleted
	}
	return AppointmentConsentPending
}

type Appointment struct {
	Base
	UserID         uuid.UUID                `db:"user_id" json:"user_id"`
	ClinicID       uuid.UUID                `db:"clinic_id" json:"clinic_id"`
	ProfessionalID uuid.UUID                `db:"professional_id" json:"professional_id"`
	TreatmentID    uuid.UUID                `db:"treatment_id" json:"treatment_id"`
	Date           time.Time                `db:"date" json:"date"`
	StartTime      string                   `db:"start_time" json:"start_time"`
	EndTime        string                   `db:"end_time" json:"end_time"`
	Status         AppointmentStatus        `db:"status" json:"status"`
	ConsentStatus  AppointmentConsentStatus `db:"consent_status" json:"consent_status"`
	PriceCharged   float64                  `db:"price_charged" json:"price_charged"`
	PointsEarned   int                      `db:"points_earned" json:"points_earned"`
	Notes          string                   `db:"notes" json:"notes,omitempty"`
	CancelReason   *string                  `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CompletedAt    *time.Time               `db:"completed_at" json:"completed_at,omitempty"`
}

// StartsAt combines Date and StartTime in the given location
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	clock, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return a.Date
	}
	y, m, d := a.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
}

// AppointmentDetail is an appointment joined with display names
type AppointmentDetail struct {
	Appointment
	TreatmentName    string `db:"treatment_name" json:"treatment_name"`
	ProfessionalName string `db:"professional_name" json:"professional_name"`
	ClinicName       string `db:"clinic_name" json:"clinic_name"`
}

type CreateAppointmentRequest struct {
	ClinicID       uuid.UUID `json:"clinic_id" binding:"required"`
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	TreatmentID    uuid.UUID `json:"treatment_id" binding:"required"`
	Date           string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime      string    `json:"start_time" binding:"required,hhmm"`
	Notes          string    `json:"notes" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	UserID         *uuid.UUID
	ClinicID       *uuid.UUID
	ProfessionalID *uuid.UUID
	Status         AppointmentStatus
	From           *time.Time
	To             *time.Time
	Pagination
}

// StatusChange is written together with the appointment row so the outbox
// event and the new status commit atomically.
type StatusChange struct {
	Appointment *Appointment
	From        AppointmentStatus
	PointsDelta int
}
