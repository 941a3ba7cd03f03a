package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
)

type DashboardServicer interface {
	GetDashboard(ctx context.Context, userID uuid.UUID) (*model.Dashboard, error)
}

// Service composes the dashboard from independent reads. No transaction
// spans them, so the parts may reflect slightly different moments.
type Service struct {
	users        repository.UserRepository
	clinics      repository.ClinicRepository
	appointments repository.AppointmentRepository
	treatments   repository.TreatmentRepository
	vips         repository.VIPRepository
	tips         repository.WellnessRepository
	now          func() time.Time
}

func NewService(
	users repository.UserRepository,
	clinics repository.ClinicRepository,
	appointments repository.AppointmentRepository,
	treatments repository.TreatmentRepository,
	vips repository.VIPRepository,
	tips repository.WellnessRepository,
) *Service {
	return &Service{
		users:        users,
		clinics:      clinics,
		appointments: appointments,
		treatments:   treatments,
		vips:         vips,
		tips:         tips,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetDashboard(ctx context.Context, userID uuid.UUID) (*model.Dashboard, error) {
	now := s.now()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, service.RepoError(err, "user")
	}
	user.LoyaltyTier = model.TierForPoints(user.BeautyPoints)

	subs, err := service.ActiveVIP(ctx, s.vips, user, now)
	if err != nil {
		return nil, err
	}

	next, err := s.appointments.NextUpcoming(ctx, userID, now)
	if err != nil {
		return nil, service.RepoError(err, "appointment")
	}

	treatments, err := s.recommended(ctx, user, subs)
	if err != nil {
		return nil, err
	}

	tip, err := s.tips.Latest(ctx)
	if err != nil {
		return nil, service.RepoError(err, "wellness tip")
	}

	return &model.Dashboard{
		User:             user,
		VIPSubscriptions: subs,
		NextAppointment:  next,
		Treatments:       treatments,
		WellnessTip:      tip,
	}, nil
}

// recommended lists active treatments, scoped to the user's primary clinic
// when one is set. VIP-only treatments show up when the user holds an active
// subscription at that clinic and the clinic runs a VIP program.
func (s *Service) recommended(ctx context.Context, user *model.User, subs []model.VIPSubscription) ([]model.Treatment, error) {
	filters := &model.TreatmentFilters{
		ActiveOnly: true,
		IncludeVIP: user.IsVIP,
		Limit:      model.DashboardTreatmentLimit,
	}
	if user.PrimaryClinicID != nil {
		clinic, err := s.clinics.GetByID(ctx, *user.PrimaryClinicID)
		if err != nil {
			return nil, service.RepoError(err, "clinic")
		}
		filters.ClinicID = &clinic.ID
		filters.IncludeVIP = service.VIPAt(subs, clinic)
	}

	list, err := s.treatments.List(ctx, filters)
	if err != nil {
		return nil, service.RepoError(err, "treatment")
	}
	out := make([]model.Treatment, 0, len(list))
	for _, t := range list {
		out = append(out, *t)
	}
	return out, nil
}
