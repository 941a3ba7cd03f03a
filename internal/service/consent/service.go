package consent

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

type ConsentServicer interface {
	CreateTemplate(ctx context.Context, clinicID uuid.UUID, req *model.CreateConsentTemplateRequest) (*model.ConsentFormTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error)
	ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error)
	UpdateTemplate(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateConsentTemplateRequest) (*model.ConsentFormTemplate, error)

	Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitConsentRequest) (*model.PatientConsent, error)
	GetConsent(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error)
	ListConsents(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error)
	Approve(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error)
	Reject(ctx context.Context, principal *model.Principal, id uuid.UUID, reason string) (*model.PatientConsent, error)
}

type Service struct {
	repo       repository.ConsentRepository
	treatments repository.TreatmentRepository
	now        func() time.Time
}

func NewService(repo repository.ConsentRepository, treatments repository.TreatmentRepository) *Service {
	return &Service{
		repo:       repo,
		treatments: treatments,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateTemplate(ctx context.Context, clinicID uuid.UUID, req *model.CreateConsentTemplateRequest) (*model.ConsentFormTemplate, error) {
	if err := validateFields(req.Fields); err != nil {
		return nil, err
	}

	tpl := &model.ConsentFormTemplate{
		ClinicID:     clinicID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Version:      1,
		Fields:       req.Fields,
		ValidityDays: req.ValidityDays,
		IsActive:     true,
	}
	if err := s.repo.CreateTemplate(ctx, tpl); err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	return tpl, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error) {
	tpl, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	return tpl, nil
}

func (s *Service) ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error) {
	out, err := s.repo.ListTemplates(ctx, clinicID)
	if err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	return out, nil
}

// UpdateTemplate bumps the version whenever the title, description, fields
// or validity change. Toggling IsActive alone keeps the version.
func (s *Service) UpdateTemplate(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateConsentTemplateRequest) (*model.ConsentFormTemplate, error) {
	tpl, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	if tpl.ClinicID != clinicID {
		return nil, apperrors.NotFound("consent form template", nil)
	}

	changed := false
	if req.Title != nil && strings.TrimSpace(*req.Title) != tpl.Title {
		tpl.Title = strings.TrimSpace(*req.Title)
		changed = true
	}
	if req.Description != nil && *req.Description != tpl.Description {
		tpl.Description = *req.Description
		changed = true
	}
	if req.Fields != nil {
		if err := validateFields(req.Fields); err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(model.ConsentFields(req.Fields), tpl.Fields) {
			tpl.Fields = req.Fields
			changed = true
		}
	}
	if req.ValidityDays != nil && *req.ValidityDays != tpl.ValidityDays {
		tpl.ValidityDays = *req.ValidityDays
		changed = true
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if changed {
		tpl.Version++
	}

	if err := s.repo.UpdateTemplate(ctx, tpl); err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	return tpl, nil
}

// Submit records the user's response against the treatment's current
// template. A signed submission is valid for the template's validity days.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitConsentRequest) (*model.PatientConsent, error) {
	t, err := s.treatments.GetByID(ctx, req.TreatmentID)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	if t.ConsentFormTemplateID == nil {
		return nil, apperrors.Validation("treatment has no consent form", nil)
	}
	tpl, err := s.repo.GetTemplate(ctx, *t.ConsentFormTemplateID)
	if err != nil {
		return nil, service.RepoError(err, "consent form template")
	}
	if !tpl.IsActive {
		return nil, apperrors.Validation("consent form template is inactive", nil)
	}
	if err := checkResponses(tpl.Fields, req.Responses, req.Signed); err != nil {
		return nil, err
	}

	c := &model.PatientConsent{
		UserID:          userID,
		TreatmentID:     t.ID,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		Responses:       req.Responses,
		Status:          model.ConsentPending,
	}
	cascade := model.AppointmentConsentPending
	if req.Signed {
		now := s.now()
		expires := now.AddDate(0, 0, tpl.ValidityDays)
		c.Status = model.ConsentSigned
		c.SignedAt = &now
		c.ExpiresAt = &expires
		cascade = model.AppointmentConsentCompleted
	}

	if err := s.repo.Submit(ctx, c, cascade); err != nil {
		return nil, service.RepoError(err, "consent")
	}
	return c, nil
}

// GetConsent is visible to its owner and to the treatment's clinic
func (s *Service) GetConsent(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "consent")
	}
	if c.UserID == principal.ID {
		return c, nil
	}
	if err := s.reviewable(ctx, principal, c); err != nil {
		return nil, apperrors.NotFound("consent", nil)
	}
	return c, nil
}

func (s *Service) ListConsents(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error) {
	out, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, service.RepoError(err, "consent")
	}
	return out, nil
}

// Approve clears a signed consent. The user's pending appointments for the
// treatment become APPROVED in the same transaction.
func (s *Service) Approve(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "consent")
	}
	if err := s.reviewable(ctx, principal, c); err != nil {
		return nil, err
	}
	if c.Status != model.ConsentSigned {
		return nil, apperrors.Conflict("only signed consents can be approved", nil)
	}

	now := s.now()
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return nil, apperrors.Conflict("consent has expired", nil)
	}
	approver := principal.ID
	c.Status = model.ConsentApproved
	c.ApprovedBy = &approver
	c.ApprovedAt = &now
	c.RejectionReason = nil

	event, err := model.NewOutboxEvent("consent", c.ID, model.EventConsentApproved, map[string]interface{}{
		"consent_id":   c.ID,
		"user_id":      c.UserID,
		"treatment_id": c.TreatmentID,
		"approved_by":  approver,
		"expires_at":   c.ExpiresAt,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.repo.Review(ctx, c, model.AppointmentConsentApproved, event); err != nil {
		return nil, service.RepoError(err, "consent")
	}
	return c, nil
}

// Reject closes a pending or signed consent. The user's pending appointments
// for the treatment fall back to PENDING.
func (s *Service) Reject(ctx context.Context, principal *model.Principal, id uuid.UUID, reason string) (*model.PatientConsent, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "consent")
	}
	if err := s.reviewable(ctx, principal, c); err != nil {
		return nil, err
	}
	if c.Status != model.ConsentSigned && c.Status != model.ConsentPending {
		return nil, apperrors.Conflict("consent has already been reviewed", nil)
	}

	c.Status = model.ConsentRejected
	if reason = strings.TrimSpace(reason); reason != "" {
		c.RejectionReason = &reason
	}

	if err := s.repo.Review(ctx, c, model.AppointmentConsentPending, nil); err != nil {
		return nil, service.RepoError(err, "consent")
	}
	return c, nil
}

// reviewable checks that principal acts for the clinic offering the
// consent's treatment.
func (s *Service) reviewable(ctx context.Context, principal *model.Principal, c *model.PatientConsent) error {
	t, err := s.treatments.GetByID(ctx, c.TreatmentID)
	if err != nil {
		return service.RepoError(err, "treatment")
	}
	if !principal.CanManageClinic(t.ClinicID) {
		return apperrors.Forbidden("consent belongs to another clinic")
	}
	return nil
}

func validateFields(fields []model.ConsentField) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f.Key]; ok {
			return apperrors.Validation("field keys must be unique: "+f.Key, nil)
		}
		seen[f.Key] = struct{}{}
		if f.Type == model.FieldSelect && len(f.Options) == 0 {
			return apperrors.Validation("select field needs options: "+f.Key, nil)
		}
	}
	return nil
}

// checkResponses enforces required fields. Required answers are only
// demanded when the form is being signed.
func checkResponses(fields model.ConsentFields, responses model.JSONMap, signed bool) error {
	if !signed {
		return nil
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := responses[f.Key]
		if !ok || v == nil {
			return apperrors.Validation("missing required field: "+f.Key, nil)
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				return apperrors.Validation("missing required field: "+f.Key, nil)
			}
		case bool:
			if f.Type == model.FieldCheckbox && !val {
				return apperrors.Validation("required checkbox not ticked: "+f.Key, nil)
			}
		}
	}
	return nil
}
