package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/security"
	"github.com/jwalitptl/beauty-api/pkg/slug"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

const (
	slugCacheTTL    = 10 * time.Minute
	maxSlugAttempts = 20
)

type ClinicServicer interface {
	CreateClinic(ctx context.Context, req *model.CreateClinicRequest) (*model.Clinic, error)
	GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	GetClinicBySlug(ctx context.Context, clinicSlug string) (*model.Clinic, error)
	ListClinics(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error)
	UpdateClinic(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error)
	DeactivateClinic(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   repository.ClinicRepository
	hasher security.PasswordHasher
	bySlug *cache.Cache
}

func NewService(repo repository.ClinicRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		bySlug: cache.New(slugCacheTTL, 2*slugCacheTTL),
	}
}

func (s *Service) CreateClinic(ctx context.Context, req *model.CreateClinicRequest) (*model.Clinic, error) {
	clinic := &model.Clinic{
		Name:                 strings.TrimSpace(req.Name),
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		Address:              req.Address,
		City:                 req.City,
		Description:          req.Description,
		BusinessHours:        req.BusinessHours,
		IsActive:             true,
		VIPProgramEnabled:    req.VIPProgramEnabled,
		OnlineBookingEnabled: true,
	}
	if req.OnlineBookingEnabled != nil {
		clinic.OnlineBookingEnabled = *req.OnlineBookingEnabled
	}
	if req.Phone != "" {
		phone, err := validator.NormalizePhone(req.Phone)
		if err != nil {
			return nil, apperrors.Validation("invalid phone number", err)
		}
		clinic.Phone = phone
	}
	if err := validateHours(clinic.BusinessHours); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, clinic.Email); err == nil {
		return nil, apperrors.Conflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	var err error
	if req.Slug != "" {
		clinic.Slug = req.Slug
		exists, err := s.repo.SlugExists(ctx, clinic.Slug)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if exists {
			return nil, apperrors.Conflict("slug already taken", nil)
		}
	} else if clinic.Slug, err = s.uniqueSlug(ctx, clinic.Name); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}
	clinic.PasswordHash = hash

	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, service.RepoError(err, "clinic")
	}

	log.Info().Str("clinic_id", clinic.ID.String()).Str("slug", clinic.Slug).Msg("clinic created")
	return clinic, nil
}

// uniqueSlug derives a slug from name, suffixing -2, -3 ... on collision
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", apperrors.Validation("name must contain letters or digits", nil)
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", apperrors.Internal(err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apperrors.Conflict("could not derive a unique slug", nil)
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "clinic")
	}
	return clinic, nil
}

func (s *Service) GetClinicBySlug(ctx context.Context, clinicSlug string) (*model.Clinic, error) {
	if v, ok := s.bySlug.Get(clinicSlug); ok {
		return v.(*model.Clinic), nil
	}

	clinic, err := s.repo.GetBySlug(ctx, clinicSlug)
	if err != nil {
		return nil, service.RepoError(err, "clinic")
	}
	if clinic.IsActive {
		s.bySlug.SetDefault(clinicSlug, clinic)
	}
	return clinic, nil
}

func (s *Service) ListClinics(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	clinics, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, service.RepoError(err, "clinic")
	}
	return clinics, total, nil
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "clinic")
	}

	if req.Name != nil {
		clinic.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		phone := ""
		if *req.Phone != "" {
			if phone, err = validator.NormalizePhone(*req.Phone); err != nil {
				return nil, apperrors.Validation("invalid phone number", err)
			}
		}
		clinic.Phone = phone
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.City != nil {
		clinic.City = *req.City
	}
	if req.Description != nil {
		clinic.Description = *req.Description
	}
	if req.BusinessHours != nil {
		if err := validateHours(req.BusinessHours); err != nil {
			return nil, err
		}
		clinic.BusinessHours = req.BusinessHours
	}
	if req.VIPProgramEnabled != nil {
		clinic.VIPProgramEnabled = *req.VIPProgramEnabled
	}
	if req.OnlineBookingEnabled != nil {
		clinic.OnlineBookingEnabled = *req.OnlineBookingEnabled
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, service.RepoError(err, "clinic")
	}
	s.bySlug.Delete(clinic.Slug)
	return clinic, nil
}

func (s *Service) DeactivateClinic(ctx context.Context, id uuid.UUID) error {
	clinic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return service.RepoError(err, "clinic")
	}
	clinic.IsActive = false
	clinic.OnlineBookingEnabled = false
	if err := s.repo.Update(ctx, clinic); err != nil {
		return service.RepoError(err, "clinic")
	}
	s.bySlug.Delete(clinic.Slug)
	log.Info().Str("clinic_id", id.String()).Msg("clinic deactivated")
	return nil
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func validateHours(hours model.BusinessHours) error {
	for day, h := range hours {
		if !weekdays[day] {
			return apperrors.Validation(fmt.Sprintf("unknown weekday %q", day), nil)
		}
		if h.Closed {
			continue
		}
		if !validator.IsClock(h.Open) || !validator.IsClock(h.Close) || h.Open >= h.Close {
			return apperrors.Validation(fmt.Sprintf("invalid opening hours for %s", day), nil)
		}
	}
	return nil
}
