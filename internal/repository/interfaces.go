package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique violations and on stale status updates
	ErrConflict = errors.New("record conflict")
)

// All repository interfaces in one file
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		GetBySlug(ctx context.Context, slug string) (*model.Clinic, error)
		GetByEmail(ctx context.Context, email string) (*model.Clinic, error)
		SlugExists(ctx context.Context, slug string) (bool, error)
		List(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error)
		Update(ctx context.Context, clinic *model.Clinic) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		// Update writes profile fields only. Points, tier and VIP flag are
		// maintained by the appointment and VIP repositories.
		Update(ctx context.Context, user *model.User) error
		TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	ProfessionalRepository interface {
		Create(ctx context.Context, professional *model.Professional) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error)
		GetByEmail(ctx context.Context, email string) (*model.Professional, error)
		ListByClinic(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error)
		Update(ctx context.Context, professional *model.Professional) error
	}

	TreatmentRepository interface {
		Create(ctx context.Context, treatment *model.Treatment) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
		// List orders featured treatments first, newest next
		List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error)
		Update(ctx context.Context, treatment *model.Treatment) error
	}

	ConsentRepository interface {
		CreateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error
		GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error)
		ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error)
		UpdateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error

		GetByID(ctx context.Context, id uuid.UUID) (*model.PatientConsent, error)
		// Latest returns the newest consent of a user for a treatment
		Latest(ctx context.Context, userID, treatmentID uuid.UUID) (*model.PatientConsent, error)
		// ValidApproval returns the newest APPROVED consent still unexpired at
		// the given time, or ErrNotFound. Newer drafts do not hide it.
		ValidApproval(ctx context.Context, userID, treatmentID uuid.UUID, at time.Time) (*model.PatientConsent, error)
		List(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error)
		// Submit inserts the consent and moves the consent status of the
		// user's pending appointments for the treatment, in one transaction.
		// Appointments covered by a valid approval are never downgraded.
		Submit(ctx context.Context, consent *model.PatientConsent, cascade model.AppointmentConsentStatus) error
		// Review persists an approval or rejection with the same cascade and
		// an optional outbox event.
		Review(ctx context.Context, consent *model.PatientConsent, cascade model.AppointmentConsentStatus, event *model.OutboxEvent) error
	}

	AppointmentRepository interface {
		// Create re-checks the professional's schedule under a row lock and
		// returns ErrConflict when the slot was taken concurrently.
		Create(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, int, error)
		HasOverlap(ctx context.Context, professionalID uuid.UUID, date time.Time, start, end string, excludeID *uuid.UUID) (bool, error)
		// NextUpcoming returns nil without error when nothing is scheduled
		NextUpcoming(ctx context.Context, userID uuid.UUID, now time.Time) (*model.AppointmentDetail, error)
		// ApplyStatusChange moves the appointment from change.From to its
		// current status, credits change.PointsDelta to the user and stores
		// the event, in one transaction. A concurrent transition yields ErrConflict.
		ApplyStatusChange(ctx context.Context, change *model.StatusChange, event *model.OutboxEvent) error
		PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.PointsEntry, error)
	}

	VIPRepository interface {
		// Create and Cancel keep users.is_vip in sync in the same transaction
		Create(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error
		Cancel(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.VIPSubscription, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]model.VIPSubscription, error)
		ActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) ([]model.VIPSubscription, error)
		HasActive(ctx context.Context, userID, clinicID uuid.UUID, at time.Time) (bool, error)
		// ExpireDue marks lapsed ACTIVE subscriptions EXPIRED and resyncs the
		// affected users.
		ExpireDue(ctx context.Context, at time.Time) (int64, error)
	}

	WellnessRepository interface {
		Create(ctx context.Context, tip *model.WellnessTip) error
		// Latest returns nil without error when there is no active tip
		Latest(ctx context.Context) (*model.WellnessTip, error)
		List(ctx context.Context, limit int) ([]*model.WellnessTip, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int, now time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryCount int, nextRetryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
