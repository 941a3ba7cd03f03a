package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// MaxAdvanceBooking bounds how far ahead a slot can be booked
	MaxAdvanceBooking = 180 * 24 * time.Hour
)

type AppointmentServicer interface {
	BookAppointment(ctx context.Context, userID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	GetAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error)
	ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, int, error)
	ConfirmAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error)
	StartAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error)
	CompleteAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID, reason string) (*model.Appointment, error)
}

type Service struct {
	repo          repository.AppointmentRepository
	clinics       repository.ClinicRepository
	professionals repository.ProfessionalRepository
	treatments    repository.TreatmentRepository
	users         repository.UserRepository
	consents      repository.ConsentRepository
	vips          repository.VIPRepository
	now           func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	clinics repository.ClinicRepository,
	professionals repository.ProfessionalRepository,
	treatments repository.TreatmentRepository,
	users repository.UserRepository,
	consents repository.ConsentRepository,
	vips repository.VIPRepository,
) *Service {
	return &Service{
		repo:          repo,
		clinics:       clinics,
		professionals: professionals,
		treatments:    treatments,
		users:         users,
		consents:      consents,
		vips:          vips,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) BookAppointment(ctx context.Context, userID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperrors.Validation("date must be YYYY-MM-DD", err)
	}
	if _, err := time.Parse(clockLayout, req.StartTime); err != nil {
		return nil, apperrors.Validation("start_time must be HH:MM", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}
	clinic, err := s.clinics.GetByID(ctx, req.ClinicID)
	if err != nil {
		return nil, service.RepoError(err, "clinic")
	}
	if !clinic.IsActive || !clinic.OnlineBookingEnabled {
		return nil, apperrors.Validation("clinic does not accept online bookings", nil)
	}

	t, err := s.treatments.GetByID(ctx, req.TreatmentID)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	if t.ClinicID != clinic.ID || !t.IsActive {
		return nil, apperrors.Validation("treatment is not offered by this clinic", nil)
	}
	now := s.now()
	member, err := s.memberAt(ctx, user.ID, clinic, now)
	if err != nil {
		return nil, err
	}
	if t.VIPOnly && !member {
		return nil, apperrors.Forbidden("treatment is reserved for VIP members")
	}

	p, err := s.professionals.GetByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, service.RepoError(err, "professional")
	}
	if p.ClinicID != clinic.ID || !p.IsActive {
		return nil, apperrors.Validation("professional does not work at this clinic", nil)
	}
	if t.RequiresMedicalStaff && !p.IsMedicalStaff {
		return nil, apperrors.Validation("treatment must be performed by medical staff", nil)
	}

	end, err := endTime(req.StartTime, t.DurationMinutes)
	if err != nil {
		return nil, err
	}

	a := &model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		UserID:         user.ID,
		ClinicID:       clinic.ID,
		ProfessionalID: p.ID,
		TreatmentID:    t.ID,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        end,
		Status:         model.AppointmentPending,
		PriceCharged:   t.PriceFor(member),
		Notes:          strings.TrimSpace(req.Notes),
	}

	startsAt := a.StartsAt(time.UTC)
	if !startsAt.After(now) {
		return nil, apperrors.Validation("appointment cannot be scheduled in the past", nil)
	}
	if startsAt.Sub(now) > MaxAdvanceBooking {
		return nil, apperrors.Validation("appointment is too far in the future", nil)
	}
	if !clinic.BusinessHours.IsOpen(date, a.StartTime, a.EndTime) {
		return nil, apperrors.Validation("clinic is closed at the requested time", nil)
	}

	overlap, err := s.repo.HasOverlap(ctx, p.ID, date, a.StartTime, a.EndTime, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if overlap {
		return nil, apperrors.Conflict("professional is already booked at that time", nil)
	}

	consent, err := s.consentFor(ctx, t, user.ID, now)
	if err != nil {
		return nil, err
	}
	a.ConsentStatus = model.ConsentStatusFor(t, consent, now)

	event, err := newEvent(a, model.EventAppointmentBooked)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.Create(ctx, a, event); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("professional is already booked at that time", err)
		}
		return nil, service.RepoError(err, "appointment")
	}
	return a, nil
}

// GetAppointment is visible to its owner and to the clinic it is booked at
func (s *Service) GetAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "appointment")
	}
	if a.UserID != principal.ID && !principal.CanManageClinic(a.ClinicID) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, int, error) {
	filters.Pagination = filters.Pagination.Normalize()
	out, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, service.RepoError(err, "appointment")
	}
	return out, total, nil
}

// ConfirmAppointment refuses appointments whose treatment needs a consent
// until an approved, unexpired consent exists. The appointment stays PENDING.
func (s *Service) ConfirmAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.managed(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(a, model.AppointmentConfirmed); err != nil {
		return nil, err
	}

	t, err := s.treatments.GetByID(ctx, a.TreatmentID)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	now := s.now()
	consent, err := s.consentFor(ctx, t, a.UserID, now)
	if err != nil {
		return nil, err
	}
	status := model.ConsentStatusFor(t, consent, now)
	if status != model.AppointmentConsentApproved {
		return nil, apperrors.Conflict("an approved consent form is required before confirming", nil)
	}
	a.ConsentStatus = status

	return s.transition(ctx, a, model.AppointmentConfirmed, 0, model.EventAppointmentConfirmed)
}

func (s *Service) StartAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.managed(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(a, model.AppointmentInProgress); err != nil {
		return nil, err
	}
	return s.transition(ctx, a, model.AppointmentInProgress, 0, model.EventAppointmentStarted)
}

// CompleteAppointment awards the treatment's points, doubled for VIPs. The
// user's balance and tier move in the same transaction as the status.
func (s *Service) CompleteAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.managed(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(a, model.AppointmentCompleted); err != nil {
		return nil, err
	}

	t, err := s.treatments.GetByID(ctx, a.TreatmentID)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	user, err := s.users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}
	completedAt := s.now()
	if _, err := service.ActiveVIP(ctx, s.vips, user, completedAt); err != nil {
		return nil, err
	}

	points := t.BeautyPointsEarned * user.VIPMultiplier()
	a.PointsEarned = points
	a.CompletedAt = &completedAt

	return s.transition(ctx, a, model.AppointmentCompleted, points, model.EventAppointmentCompleted)
}

// CancelAppointment is allowed for the owner and for the clinic
func (s *Service) CancelAppointment(ctx context.Context, principal *model.Principal, id uuid.UUID, reason string) (*model.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "appointment")
	}
	if a.UserID != principal.ID && !principal.CanManageClinic(a.ClinicID) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if err := checkTransition(a, model.AppointmentCancelled); err != nil {
		return nil, err
	}

	if reason = strings.TrimSpace(reason); reason != "" {
		a.CancelReason = &reason
	}
	return s.transition(ctx, a, model.AppointmentCancelled, 0, model.EventAppointmentCancelled)
}

// managed loads an appointment the principal's clinic can operate on
func (s *Service) managed(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "appointment")
	}
	if !principal.CanManageClinic(a.ClinicID) {
		if a.UserID == principal.ID {
			return nil, apperrors.Forbidden("only the clinic can change this appointment")
		}
		return nil, apperrors.NotFound("appointment", nil)
	}
	return a, nil
}

func (s *Service) transition(ctx context.Context, a *model.Appointment, next model.AppointmentStatus, points int, eventType string) (*model.Appointment, error) {
	change := &model.StatusChange{
		Appointment: a,
		From:        a.Status,
		PointsDelta: points,
	}
	a.Status = next

	event, err := newEvent(a, eventType)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.ApplyStatusChange(ctx, change, event); err != nil {
		a.Status = change.From
		return nil, service.RepoError(err, "appointment")
	}
	return a, nil
}

// memberAt reports whether the user holds an active subscription at a
// clinic that runs a VIP program. VIP perks never carry across clinics.
func (s *Service) memberAt(ctx context.Context, userID uuid.UUID, clinic *model.Clinic, at time.Time) (bool, error) {
	if !clinic.VIPProgramEnabled {
		return false, nil
	}
	ok, err := s.vips.HasActive(ctx, userID, clinic.ID, at)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return ok, nil
}

// consentFor prefers a valid approval over any newer submission, so a draft
// saved after approval does not close the gate. Without one, the newest
// consent decides between PENDING and COMPLETED.
func (s *Service) consentFor(ctx context.Context, t *model.Treatment, userID uuid.UUID, at time.Time) (*model.PatientConsent, error) {
	if !t.ConsentFormRequired {
		return nil, nil
	}
	approved, err := s.consents.ValidApproval(ctx, userID, t.ID, at)
	if err == nil {
		return approved, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	c, err := s.consents.Latest(ctx, userID, t.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

func checkTransition(a *model.Appointment, next model.AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return apperrors.Conflict(fmt.Sprintf("appointment cannot move from %s to %s", a.Status, next), nil)
	}
	return nil
}

// endTime adds the treatment duration to an HH:MM start. Appointments never
// run past midnight.
func endTime(start string, minutes int) (string, error) {
	clock, err := time.Parse(clockLayout, start)
	if err != nil {
		return "", apperrors.Validation("start_time must be HH:MM", err)
	}
	end := clock.Add(time.Duration(minutes) * time.Minute)
	if end.Day() != clock.Day() {
		return "", apperrors.Validation("appointment must end on the same day", nil)
	}
	return end.Format(clockLayout), nil
}

func newEvent(a *model.Appointment, eventType string) (*model.OutboxEvent, error) {
	return model.NewOutboxEvent("appointment", a.ID, eventType, map[string]interface{}{
		"appointment_id":  a.ID,
		"user_id":         a.UserID,
		"clinic_id":       a.ClinicID,
		"professional_id": a.ProfessionalID,
		"treatment_id":    a.TreatmentID,
		"date":            a.Date.Format(dateLayout),
		"start_time":      a.StartTime,
		"status":          a.Status,
		"points_earned":   a.PointsEarned,
	})
}
