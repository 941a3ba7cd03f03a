package points

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
)

type PointsServicer interface {
	GetLedger(ctx context.Context, userID uuid.UUID) (*model.PointsLedger, error)
}

type Service struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	vips         repository.VIPRepository
	now          func() time.Time
}

func NewService(users repository.UserRepository, appointments repository.AppointmentRepository, vips repository.VIPRepository) *Service {
	return &Service{
		users:        users,
		appointments: appointments,
		vips:         vips,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetLedger reports the balance, the earning multiplier, the most recent
// point-earning appointments and progress towards the fixed rewards.
func (s *Service) GetLedger(ctx context.Context, userID uuid.UUID) (*model.PointsLedger, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}
	if _, err := service.ActiveVIP(ctx, s.vips, user, s.now()); err != nil {
		return nil, err
	}

	history, err := s.appointments.PointsHistory(ctx, userID, model.PointsHistoryLimit)
	if err != nil {
		return nil, service.RepoError(err, "appointment")
	}
	if history == nil {
		history = []model.PointsEntry{}
	}

	return &model.PointsLedger{
		Balance:       user.BeautyPoints,
		LoyaltyTier:   model.TierForPoints(user.BeautyPoints),
		VIPMultiplier: user.VIPMultiplier(),
		History:       history,
		Rewards:       model.RewardsFor(user.BeautyPoints),
	}, nil
}
