package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

type UserServicer interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
}

type Service struct {
	repo    repository.UserRepository
	clinics repository.ClinicRepository
	vips    repository.VIPRepository
	now     func() time.Time
}

func NewService(repo repository.UserRepository, clinics repository.ClinicRepository, vips repository.VIPRepository) *Service {
	return &Service{repo: repo, clinics: clinics, vips: vips, now: time.Now}
}

// GetUser returns the profile with its tier derived from the point balance
// and its VIP flag derived from active subscriptions.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}
	return s.derive(ctx, user)
}

// UpdateUser applies profile and medical note changes. Points, tier and the
// VIP flag are not part of the request and stay untouched.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			user.Phone = nil
		} else {
			phone, err := validator.NormalizePhone(*req.Phone)
			if err != nil {
				return nil, apperrors.Validation("invalid phone number", err)
			}
			user.Phone = &phone
		}
	}
	if req.DateOfBirth != nil {
		if req.DateOfBirth.After(s.now()) {
			return nil, apperrors.Validation("date of birth cannot be in the future", nil)
		}
		user.DateOfBirth = req.DateOfBirth
	}
	if req.PrimaryClinicID != nil {
		if _, err := s.clinics.GetByID(ctx, *req.PrimaryClinicID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Validation("primary clinic does not exist", err)
			}
			return nil, apperrors.Internal(err)
		}
		user.PrimaryClinicID = req.PrimaryClinicID
	}
	if req.MedicalNotes != nil {
		user.MedicalNotes = *req.MedicalNotes
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, service.RepoError(err, "user")
	}
	return s.derive(ctx, user)
}

func (s *Service) derive(ctx context.Context, user *model.User) (*model.User, error) {
	user.LoyaltyTier = model.TierForPoints(user.BeautyPoints)
	if _, err := service.ActiveVIP(ctx, s.vips, user, s.now()); err != nil {
		return nil, err
	}
	return user, nil
}
