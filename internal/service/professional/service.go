package professional

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/security"
)

type ProfessionalServicer interface {
	CreateProfessional(ctx context.Context, clinicID uuid.UUID, req *model.CreateProfessionalRequest) (*model.Professional, error)
	GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	ListProfessionals(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error)
	UpdateProfessional(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateProfessionalRequest) (*model.Professional, error)
}

type Service struct {
	repo    repository.ProfessionalRepository
	clinics repository.ClinicRepository
	hasher  security.PasswordHasher
}

func NewService(repo repository.ProfessionalRepository, clinics repository.ClinicRepository, hasher security.PasswordHasher) *Service {
	return &Service{repo: repo, clinics: clinics, hasher: hasher}
}

func (s *Service) CreateProfessional(ctx context.Context, clinicID uuid.UUID, req *model.CreateProfessionalRequest) (*model.Professional, error) {
	if _, err := s.clinics.GetByID(ctx, clinicID); err != nil {
		return nil, service.RepoError(err, "clinic")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	p := &model.Professional{
		ClinicID:       clinicID,
		Email:          email,
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Title:          req.Title,
		LicenseNumber:  req.LicenseNumber,
		Specialties:    pq.StringArray(normalizeSpecialties(req.Specialties)),
		Certifications: model.Certifications(req.Certifications),
		EmploymentType: req.EmploymentType,
		IsMedicalStaff: req.IsMedicalStaff,
		IsActive:       true,
	}
	if p.IsMedicalStaff && (p.LicenseNumber == nil || *p.LicenseNumber == "") {
		return nil, apperrors.Validation("medical staff require a license number", nil)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, service.RepoError(err, "professional")
	}
	return p, nil
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "professional")
	}
	return p, nil
}

func (s *Service) ListProfessionals(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error) {
	out, err := s.repo.ListByClinic(ctx, clinicID, activeOnly)
	if err != nil {
		return nil, service.RepoError(err, "professional")
	}
	return out, nil
}

// UpdateProfessional changes a professional of clinicID. Professionals of
// other clinics are reported as not found.
func (s *Service) UpdateProfessional(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateProfessionalRequest) (*model.Professional, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "professional")
	}
	if p.ClinicID != clinicID {
		return nil, apperrors.NotFound("professional", nil)
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.LicenseNumber != nil {
		p.LicenseNumber = req.LicenseNumber
	}
	if req.Specialties != nil {
		p.Specialties = pq.StringArray(normalizeSpecialties(req.Specialties))
	}
	if req.Certifications != nil {
		p.Certifications = model.Certifications(req.Certifications)
	}
	if req.EmploymentType != nil {
		p.EmploymentType = *req.EmploymentType
	}
	if req.IsMedicalStaff != nil {
		p.IsMedicalStaff = *req.IsMedicalStaff
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			return nil, apperrors.Validation("rating must be between 0 and 5", nil)
		}
		p.Rating = *req.Rating
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if p.IsMedicalStaff && (p.LicenseNumber == nil || *p.LicenseNumber == "") {
		return nil, apperrors.Validation("medical staff require a license number", nil)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, service.RepoError(err, "professional")
	}
	return p, nil
}

// normalizeSpecialties trims, lowercases and de-duplicates while keeping order
func normalizeSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
