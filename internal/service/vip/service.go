package vip

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

type VIPServicer interface {
	Subscribe(ctx context.Context, userID uuid.UUID, req *model.SubscribeVIPRequest) (*model.VIPSubscription, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*model.VIPSubscription, error)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.VIPSubscription, error)
	ExpireDue(ctx context.Context) (int64, error)
}

type Service struct {
	repo    repository.VIPRepository
	clinics repository.ClinicRepository
	now     func() time.Time
}

func NewService(repo repository.VIPRepository, clinics repository.ClinicRepository) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe opens a subscription at a clinic running a VIP program. A user
// holds at most one active subscription per clinic.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, req *model.SubscribeVIPRequest) (*model.VIPSubscription, error) {
	clinic, err := s.clinics.GetByID(ctx, req.ClinicID)
	if err != nil {
		return nil, service.RepoError(err, "clinic")
	}
	if !clinic.IsActive || !clinic.VIPProgramEnabled {
		return nil, apperrors.Validation("clinic has no VIP program", nil)
	}

	now := s.now()
	active, err := s.repo.HasActive(ctx, userID, clinic.ID, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if active {
		return nil, apperrors.Conflict("already subscribed at this clinic", nil)
	}

	sub := &model.VIPSubscription{
		Base:     model.Base{ID: uuid.New()},
		UserID:   userID,
		ClinicID: clinic.ID,
		Plan:     req.Plan,
		Status:   model.VIPActive,
		StartsAt: now,
		EndsAt:   req.Plan.Period(now),
	}
	event, err := newEvent(sub, model.EventVIPSubscribed)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.Create(ctx, sub, event); err != nil {
		return nil, service.RepoError(err, "vip subscription")
	}
	return sub, nil
}

func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) (*model.VIPSubscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, service.RepoError(err, "vip subscription")
	}
	if sub.UserID != userID {
		return nil, apperrors.NotFound("vip subscription", nil)
	}
	if sub.Status != model.VIPActive {
		return nil, apperrors.Conflict("subscription is not active", nil)
	}

	sub.Status = model.VIPCancelled
	event, err := newEvent(sub, model.EventVIPCancelled)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.repo.Cancel(ctx, sub, event); err != nil {
		return nil, service.RepoError(err, "vip subscription")
	}
	return sub, nil
}

func (s *Service) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.VIPSubscription, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, service.RepoError(err, "vip subscription")
	}
	if out == nil {
		out = []model.VIPSubscription{}
	}
	return out, nil
}

// ExpireDue closes lapsed subscriptions and clears the VIP flag of users
// left without one.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, service.RepoError(err, "vip subscription")
	}
	return n, nil
}

func newEvent(sub *model.VIPSubscription, eventType string) (*model.OutboxEvent, error) {
	return model.NewOutboxEvent("vip_subscription", sub.ID, eventType, map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
		"clinic_id":       sub.ClinicID,
		"plan":            sub.Plan,
		"status":          sub.Status,
		"ends_at":         sub.EndsAt,
	})
}
