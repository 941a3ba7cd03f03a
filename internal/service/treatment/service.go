package treatment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

type TreatmentServicer interface {
	CreateTreatment(ctx context.Context, clinicID uuid.UUID, req *model.CreateTreatmentRequest) (*model.Treatment, error)
	GetTreatment(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
	ListTreatments(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error)
	UpdateTreatment(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.Treatment, error)
}

type Service struct {
	repo     repository.TreatmentRepository
	clinics  repository.ClinicRepository
	consents repository.ConsentRepository
}

func NewService(repo repository.TreatmentRepository, clinics repository.ClinicRepository, consents repository.ConsentRepository) *Service {
	return &Service{repo: repo, clinics: clinics, consents: consents}
}

func (s *Service) CreateTreatment(ctx context.Context, clinicID uuid.UUID, req *model.CreateTreatmentRequest) (*model.Treatment, error) {
	if _, err := s.clinics.GetByID(ctx, clinicID); err != nil {
		return nil, service.RepoError(err, "clinic")
	}

	t := &model.Treatment{
		ClinicID:              clinicID,
		Name:                  strings.TrimSpace(req.Name),
		Description:           req.Description,
		Category:              strings.ToLower(strings.TrimSpace(req.Category)),
		RiskLevel:             req.RiskLevel,
		DurationMinutes:       req.DurationMinutes,
		Price:                 req.Price,
		VIPPrice:              req.VIPPrice,
		VIPOnly:               req.VIPOnly,
		RequiresConsultation:  req.RequiresConsultation,
		RequiresMedicalStaff:  req.RequiresMedicalStaff,
		ConsentFormRequired:   req.ConsentFormRequired,
		ConsentFormTemplateID: req.ConsentFormTemplateID,
		BeautyPointsEarned:    req.BeautyPointsEarned,
		IsActive:              true,
		IsFeatured:            req.IsFeatured,
	}
	if err := s.check(ctx, t); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	return t, nil
}

func (s *Service) GetTreatment(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	return t, nil
}

func (s *Service) ListTreatments(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	out, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	return out, nil
}

func (s *Service) UpdateTreatment(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.Treatment, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	if t.ClinicID != clinicID {
		return nil, apperrors.NotFound("treatment", nil)
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil {
		t.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.RiskLevel != nil {
		t.RiskLevel = *req.RiskLevel
	}
	if req.DurationMinutes != nil {
		t.DurationMinutes = *req.DurationMinutes
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.VIPPrice != nil {
		t.VIPPrice = req.VIPPrice
	}
	if req.VIPOnly != nil {
		t.VIPOnly = *req.VIPOnly
	}
	if req.RequiresConsultation != nil {
		t.RequiresConsultation = *req.RequiresConsultation
	}
	if req.RequiresMedicalStaff != nil {
		t.RequiresMedicalStaff = *req.RequiresMedicalStaff
	}
	if req.ConsentFormRequired != nil {
		t.ConsentFormRequired = *req.ConsentFormRequired
	}
	if req.ConsentFormTemplateID != nil {
		t.ConsentFormTemplateID = req.ConsentFormTemplateID
	}
	if req.BeautyPointsEarned != nil {
		t.BeautyPointsEarned = *req.BeautyPointsEarned
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		t.IsFeatured = *req.IsFeatured
	}
	if err := s.check(ctx, t); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	return t, nil
}

// check normalizes the risk gates and validates pricing and the consent
// template reference.
func (s *Service) check(ctx context.Context, t *model.Treatment) error {
	t.Normalize()

	if t.VIPPrice != nil && *t.VIPPrice > t.Price {
		return apperrors.Validation("vip price cannot exceed the standard price", nil)
	}
	if t.ConsentFormRequired && t.ConsentFormTemplateID == nil {
		return apperrors.Validation("a consent form template is required", nil)
	}
	if t.ConsentFormTemplateID != nil {
		tpl, err := s.consents.GetTemplate(ctx, *t.ConsentFormTemplateID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Validation("consent form template does not exist", err)
		}
		if err != nil {
			return service.RepoError(err, "consent form template")
		}
		if tpl.ClinicID != t.ClinicID {
			return apperrors.Validation("consent form template belongs to another clinic", nil)
		}
	}
	return nil
}
