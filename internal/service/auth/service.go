package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/security"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

const BcryptCost = 12

var errInvalidCredentials = apperrors.Unauthorized("invalid credentials", nil)

type AuthServicer interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error)
	Resolve(ctx context.Context, subject auth.Subject) (*model.Principal, error)
}

type Service struct {
	users         repository.UserRepository
	professionals repository.ProfessionalRepository
	clinics       repository.ClinicRepository
	tokens        auth.JWTService
	hasher        security.PasswordHasher
	now           func() time.Time

	decoyOnce sync.Once
	decoy     string
}

func NewService(users repository.UserRepository, professionals repository.ProfessionalRepository,
	clinics repository.ClinicRepository, tokens auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:         users,
		professionals: professionals,
		clinics:       clinics,
		tokens:        tokens,
		hasher:        hasher,
		now:           time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	if req.PrimaryClinicID != nil {
		if _, err := s.clinics.GetByID(ctx, *req.PrimaryClinicID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Validation("primary clinic does not exist", err)
			}
			return nil, apperrors.Internal(err)
		}
	}

	user := &model.User{
		Email:           email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PrimaryClinicID: req.PrimaryClinicID,
		LoyaltyTier:     model.TierBronze,
		IsActive:        true,
	}
	if req.Phone != nil && *req.Phone != "" {
		phone, err := validator.NormalizePhone(*req.Phone)
		if err != nil {
			return nil, apperrors.Validation("invalid phone number", err)
		}
		user.Phone = &phone
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, service.RepoError(err, "user")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.issue(auth.Subject{ID: user.ID, Kind: auth.SubjectUser}, user)
}

// Login authenticates against the credential store selected by req.Kind,
// defaulting to users.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	kind := req.Kind
	if kind == "" {
		kind = auth.SubjectUser
	}

	var (
		subject auth.Subject
		profile interface{}
		hash    string
		active  bool
	)

	switch kind {
	case auth.SubjectUser:
		u, err := s.users.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, s.loginLookupError(err, req.Password)
		}
		subject, profile, hash, active = auth.Subject{ID: u.ID, Kind: kind}, u, u.PasswordHash, u.IsActive
	case auth.SubjectProfessional:
		p, err := s.professionals.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, s.loginLookupError(err, req.Password)
		}
		subject, profile, hash, active = auth.Subject{ID: p.ID, Kind: kind}, p, p.PasswordHash, p.IsActive
	case auth.SubjectClinic:
		c, err := s.clinics.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, s.loginLookupError(err, req.Password)
		}
		subject, profile, hash, active = auth.Subject{ID: c.ID, Kind: kind}, c, c.PasswordHash, c.IsActive
	default:
		return nil, apperrors.Validation("unknown account kind", nil)
	}

	if err := s.hasher.Compare(hash, req.Password); err != nil {
		return nil, errInvalidCredentials
	}
	if !active {
		return nil, apperrors.Forbidden("account is disabled")
	}

	if kind == auth.SubjectUser {
		if err := s.users.TouchLogin(ctx, subject.ID, s.now().UTC()); err != nil {
			log.Warn().Err(err).Str("user_id", subject.ID.String()).Msg("failed to record login")
		}
	}

	return s.issue(subject, profile)
}

// loginLookupError still spends one hash comparison on unknown emails so
// response time does not reveal which accounts exist.
func (s *Service) loginLookupError(err error, password string) error {
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.hasher.Compare(s.decoyHash(), password)
		return errInvalidCredentials
	}
	return apperrors.Internal(err)
}

func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("decoy-password-for-unknown-accounts")
		if err != nil {
			log.Error().Err(err).Msg("failed to prepare decoy password hash")
			return
		}
		s.decoy = h
	})
	return s.decoy
}

// Refresh exchanges a valid refresh token for a new pair. Refresh tokens are
// stateless, so the only revocation is deactivating the subject.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token", err)
	}
	subject, err := claims.Subject()
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token", err)
	}

	principal, err := s.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	return s.issue(subject, principal.Profile())
}

// Resolve loads the subject a token was issued for. Missing or inactive
// subjects are unauthorized.
func (s *Service) Resolve(ctx context.Context, subject auth.Subject) (*model.Principal, error) {
	p := &model.Principal{ID: subject.ID, Kind: subject.Kind}

	var (
		active bool
		err    error
	)
	switch subject.Kind {
	case auth.SubjectUser:
		p.User, err = s.users.GetByID(ctx, subject.ID)
		if err == nil {
			active = p.User.IsActive
			p.ClinicID = p.User.PrimaryClinicID
		}
	case auth.SubjectProfessional:
		p.Professional, err = s.professionals.GetByID(ctx, subject.ID)
		if err == nil {
			active = p.Professional.IsActive
			p.ClinicID = &p.Professional.ClinicID
		}
	case auth.SubjectClinic:
		p.Clinic, err = s.clinics.GetByID(ctx, subject.ID)
		if err == nil {
			active = p.Clinic.IsActive
			p.ClinicID = &p.Clinic.ID
		}
	default:
		return nil, apperrors.Unauthorized("invalid token subject", nil)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("subject no longer exists", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("resolve %s: %w", subject.Kind, err))
	}
	if !active {
		return nil, apperrors.Unauthorized("account is disabled", nil)
	}
	return p, nil
}

func (s *Service) issue(subject auth.Subject, profile interface{}) (*model.AuthResponse, error) {
	pair, err := s.tokens.Issue(subject)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.AuthResponse{Tokens: pair, Subject: profile}, nil
}
