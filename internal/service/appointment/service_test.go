package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/repository/mocks"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc           *Service
	repo          *mocks.AppointmentRepository
	clinics       *mocks.ClinicRepository
	professionals *mocks.ProfessionalRepository
	treatments    *mocks.TreatmentRepository
	users         *mocks.UserRepository
	consents      *mocks.ConsentRepository
	vips          *mocks.VIPRepository

	clinic       *model.Clinic
	professional *model.Professional
	treatment    *model.Treatment
	user         *model.User
}

func newFixture() *fixture {
	clinic := &model.Clinic{Base: model.Base{ID: uuid.New()}, IsActive: true, OnlineBookingEnabled: true}
	vip := 80.0
	f := &fixture{
		repo:          &mocks.AppointmentRepository{},
		clinics:       &mocks.ClinicRepository{},
		professionals: &mocks.ProfessionalRepository{},
		treatments:    &mocks.TreatmentRepository{},
		users:         &mocks.UserRepository{},
		consents:      &mocks.ConsentRepository{},
		vips:          &mocks.VIPRepository{},
		clinic:        clinic,
		professional:  &model.Professional{Base: model.Base{ID: uuid.New()}, ClinicID: clinic.ID, IsActive: true},
		treatment: &model.Treatment{
			Base:               model.Base{ID: uuid.New()},
			ClinicID:           clinic.ID,
			RiskLevel:          model.RiskLow,
			DurationMinutes:    60,
			Price:              100,
			VIPPrice:           &vip,
			BeautyPointsEarned: 50,
			IsActive:           true,
		},
		user: &model.User{Base: model.Base{ID: uuid.New()}, IsActive: true},
	}
	f.clinics.On("GetByID", mock.Anything, clinic.ID).Return(clinic, nil)
	f.professionals.On("GetByID", mock.Anything, f.professional.ID).Return(f.professional, nil)
	f.treatments.On("GetByID", mock.Anything, f.treatment.ID).Return(f.treatment, nil)
	f.users.On("GetByID", mock.Anything, f.user.ID).Return(f.user, nil)

	f.svc = NewService(f.repo, f.clinics, f.professionals, f.treatments, f.users, f.consents, f.vips)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) request() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		ClinicID:       f.clinic.ID,
		ProfessionalID: f.professional.ID,
		TreatmentID:    f.treatment.ID,
		Date:           "2025-03-12",
		StartTime:      "10:00",
	}
}

func (f *fixture) staff() *model.Principal {
	return &model.Principal{ID: uuid.New(), Kind: auth.SubjectProfessional, ClinicID: &f.clinic.ID}
}

func (f *fixture) appointment(status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		UserID:         f.user.ID,
		ClinicID:       f.clinic.ID,
		ProfessionalID: f.professional.ID,
		TreatmentID:    f.treatment.ID,
		Date:           time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
		EndTime:        "11:00",
		Status:         status,
	}
	f.repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	return a
}

func TestBookAppointment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("HasOverlap", ctx, f.professional.ID, mock.Anything, "10:00", "11:00", mock.Anything).Return(false, nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.Appointment"), mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e.EventType == model.EventAppointmentBooked
	})).Return(nil)

	a, err := f.svc.BookAppointment(ctx, f.user.ID, f.request())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentPending, a.Status)
	assert.Equal(t, "11:00", a.EndTime)
	assert.Equal(t, 100.0, a.PriceCharged)
	assert.Equal(t, model.AppointmentConsentApproved, a.ConsentStatus)
	assert.NotEqual(t, uuid.Nil, a.ID)
	f.repo.AssertExpectations(t)
}

func TestBookAppointmentVIPPerksStayWithTheClinic(t *testing.T) {
	tests := []struct {
		name       string
		vipProgram bool
		member     bool
		vipOnly    bool
		wantPrice  float64
		forbidden  bool
	}{
		{name: "member pays vip price", vipProgram: true, member: true, wantPrice: 80},
		{name: "member books vip-only treatment", vipProgram: true, member: true, vipOnly: true, wantPrice: 80},
		{name: "vip elsewhere pays full price", vipProgram: true, wantPrice: 100},
		{name: "vip elsewhere cannot book vip-only", vipProgram: true, vipOnly: true, forbidden: true},
		{name: "clinic without program", vipOnly: true, forbidden: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			f.user.IsVIP = true
			f.clinic.VIPProgramEnabled = tt.vipProgram
			f.treatment.VIPOnly = tt.vipOnly
			f.vips.On("HasActive", ctx, f.user.ID, f.clinic.ID, fixedNow).Return(tt.member, nil)
			f.repo.On("HasOverlap", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
			f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

			a, err := f.svc.BookAppointment(ctx, f.user.ID, f.request())
			if tt.forbidden {
				assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden), "got %v", err)
				f.repo.AssertNumberOfCalls(t, "Create", 0)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, a.PriceCharged)
			if !tt.vipProgram {
				f.vips.AssertNumberOfCalls(t, "HasActive", 0)
			}
		})
	}
}

func TestBookAppointmentConsentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.treatment.ConsentFormRequired = true
	f.consents.On("ValidApproval", ctx, f.user.ID, f.treatment.ID, fixedNow).Return(nil, repository.ErrNotFound)
	f.consents.On("Latest", ctx, f.user.ID, f.treatment.ID).Return(nil, repository.ErrNotFound)
	f.repo.On("HasOverlap", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	a, err := f.svc.BookAppointment(ctx, f.user.ID, f.request())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConsentPending, a.ConsentStatus)
}

func TestBookAppointmentRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(f *fixture, req *model.CreateAppointmentRequest)
		kind  apperrors.Kind
	}{
		{
			name:  "in the past",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) { req.Date = "2025-03-09" },
			kind:  apperrors.KindValidation,
		},
		{
			name:  "bad date",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) { req.Date = "12/03/2025" },
			kind:  apperrors.KindValidation,
		},
		{
			name:  "online booking disabled",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) { f.clinic.OnlineBookingEnabled = false },
			kind:  apperrors.KindValidation,
		},
		{
			name: "medical staff required",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) {
				f.treatment.RequiresMedicalStaff = true
			},
			kind: apperrors.KindValidation,
		},
		{
			name:  "vip only",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) { f.treatment.VIPOnly = true },
			kind:  apperrors.KindForbidden,
		},
		{
			name: "clinic closed",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) {
				f.clinic.BusinessHours = model.BusinessHours{"wednesday": {Open: "12:00", Close: "18:00"}}
			},
			kind: apperrors.KindValidation,
		},
		{
			name:  "runs past midnight",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) { req.StartTime = "23:30" },
			kind:  apperrors.KindValidation,
		},
		{
			name: "professional of another clinic",
			setup: func(f *fixture, req *model.CreateAppointmentRequest) {
				f.professional.ClinicID = uuid.New()
			},
			kind: apperrors.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := f.request()
			tt.setup(f, req)

			_, err := f.svc.BookAppointment(ctx, f.user.ID, req)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, tt.kind), "got %v", err)
			f.repo.AssertNumberOfCalls(t, "Create", 0)
		})
	}
}

func TestBookAppointmentOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("HasOverlap", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	_, err := f.svc.BookAppointment(ctx, f.user.ID, f.request())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	f.repo.AssertNumberOfCalls(t, "Create", 0)
}

func TestBookAppointmentSlotTakenConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("HasOverlap", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("Create", ctx, mock.Anything, mock.Anything).Return(fmt.Errorf("professional is booked: %w", repository.ErrConflict))

	a, err := f.svc.BookAppointment(ctx, f.user.ID, f.request())
	assert.Nil(t, a)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "professional is already booked at that time", appErr.Message)
}

func TestConfirmRequiresApprovedConsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.treatment.ConsentFormRequired = true
	a := f.appointment(model.AppointmentPending)

	expired := fixedNow.Add(-time.Hour)
	f.consents.On("ValidApproval", ctx, f.user.ID, f.treatment.ID, fixedNow).Return(nil, repository.ErrNotFound).Once()
	f.consents.On("Latest", ctx, f.user.ID, f.treatment.ID).Return(&model.PatientConsent{
		Status:    model.ConsentApproved,
		ExpiresAt: &expired,
	}, nil).Once()

	_, err := f.svc.ConfirmAppointment(ctx, f.staff(), a.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, model.AppointmentPending, a.Status)
	f.repo.AssertNumberOfCalls(t, "ApplyStatusChange", 0)

	valid := fixedNow.AddDate(0, 1, 0)
	f.consents.On("ValidApproval", ctx, f.user.ID, f.treatment.ID, fixedNow).Return(&model.PatientConsent{
		Status:    model.ConsentApproved,
		ExpiresAt: &valid,
	}, nil).Once()
	f.repo.On("ApplyStatusChange", ctx, mock.MatchedBy(func(c *model.StatusChange) bool {
		return c.From == model.AppointmentPending && c.PointsDelta == 0
	}), mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e.EventType == model.EventAppointmentConfirmed
	})).Return(nil)

	confirmed, err := f.svc.ConfirmAppointment(ctx, f.staff(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConfirmed, confirmed.Status)
	assert.Equal(t, model.AppointmentConsentApproved, confirmed.ConsentStatus)
}

func TestConfirmIgnoresNewerDraftAfterApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.treatment.ConsentFormRequired = true
	a := f.appointment(model.AppointmentPending)

	valid := fixedNow.AddDate(0, 0, 20)
	f.consents.On("ValidApproval", ctx, f.user.ID, f.treatment.ID, fixedNow).Return(&model.PatientConsent{
		Status:    model.ConsentApproved,
		ExpiresAt: &valid,
	}, nil)
	f.consents.On("Latest", ctx, f.user.ID, f.treatment.ID).Return(&model.PatientConsent{
		Status: model.ConsentPending,
	}, nil)
	f.repo.On("ApplyStatusChange", ctx, mock.Anything, mock.Anything).Return(nil)

	confirmed, err := f.svc.ConfirmAppointment(ctx, f.staff(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConfirmed, confirmed.Status)
	assert.Equal(t, model.AppointmentConsentApproved, confirmed.ConsentStatus)
	f.consents.AssertNotCalled(t, "Latest", ctx, f.user.ID, f.treatment.ID)
}

func TestCompleteAwardsPoints(t *testing.T) {
	tests := []struct {
		name   string
		isVIP  bool
		active []model.VIPSubscription
		want   int
	}{
		{name: "regular", want: 50},
		{name: "vip doubles", isVIP: true, active: []model.VIPSubscription{{ClinicID: uuid.New()}}, want: 100},
		{name: "lapsed vip earns single points", isVIP: true, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			f.user.IsVIP = tt.isVIP
			f.vips.On("ActiveForUser", ctx, f.user.ID, fixedNow).Return(tt.active, nil)
			a := f.appointment(model.AppointmentInProgress)
			f.repo.On("ApplyStatusChange", ctx, mock.MatchedBy(func(c *model.StatusChange) bool {
				return c.From == model.AppointmentInProgress && c.PointsDelta == tt.want
			}), mock.Anything).Return(nil)

			done, err := f.svc.CompleteAppointment(ctx, f.staff(), a.ID)
			require.NoError(t, err)
			assert.Equal(t, model.AppointmentCompleted, done.Status)
			assert.Equal(t, tt.want, done.PointsEarned)
			require.NotNil(t, done.CompletedAt)
			f.repo.AssertExpectations(t)
		})
	}
}

func TestLifecycleGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	done := f.appointment(model.AppointmentCompleted)
	_, err := f.svc.CancelAppointment(ctx, &model.Principal{ID: f.user.ID, Kind: auth.SubjectUser}, done.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	pending := f.appointment(model.AppointmentPending)
	_, err = f.svc.StartAppointment(ctx, f.staff(), pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	_, err = f.svc.StartAppointment(ctx, &model.Principal{ID: f.user.ID, Kind: auth.SubjectUser}, pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.svc.GetAppointment(ctx, &model.Principal{ID: uuid.New(), Kind: auth.SubjectUser}, pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	f.repo.AssertNumberOfCalls(t, "ApplyStatusChange", 0)
}

func TestCancelByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.appointment(model.AppointmentConfirmed)
	f.repo.On("ApplyStatusChange", ctx, mock.Anything, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e.EventType == model.EventAppointmentCancelled
	})).Return(nil)

	cancelled, err := f.svc.CancelAppointment(ctx, &model.Principal{ID: f.user.ID, Kind: auth.SubjectUser}, a.ID, " running late ")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "running late", *cancelled.CancelReason)
}

func TestConcurrentTransitionConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.appointment(model.AppointmentConfirmed)
	f.repo.On("ApplyStatusChange", ctx, mock.Anything, mock.Anything).Return(repository.ErrConflict)

	_, err := f.svc.StartAppointment(ctx, f.staff(), a.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, model.AppointmentConfirmed, a.Status)
}
