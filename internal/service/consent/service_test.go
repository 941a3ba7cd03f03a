package consent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository/mocks"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	repo       *mocks.ConsentRepository
	treatments *mocks.TreatmentRepository
	clinicID   uuid.UUID
	treatment  *model.Treatment
	template   *model.ConsentFormTemplate
}

func newFixture() *fixture {
	clinicID := uuid.New()
	tpl := &model.ConsentFormTemplate{
		Base:         model.Base{ID: uuid.New()},
		ClinicID:     clinicID,
		Title:        "Laser consent",
		Version:      3,
		ValidityDays: 30,
		IsActive:     true,
		Fields: model.ConsentFields{
			{Key: "allergies", Label: "Allergies", Type: model.FieldText, Required: true},
			{Key: "agree", Label: "I agree", Type: model.FieldCheckbox, Required: true},
		},
	}
	tr := &model.Treatment{
		Base:                  model.Base{ID: uuid.New()},
		ClinicID:              clinicID,
		ConsentFormRequired:   true,
		ConsentFormTemplateID: &tpl.ID,
	}

	f := &fixture{
		repo:       &mocks.ConsentRepository{},
		treatments: &mocks.TreatmentRepository{},
		clinicID:   clinicID,
		treatment:  tr,
		template:   tpl,
	}
	f.treatments.On("GetByID", mock.Anything, tr.ID).Return(tr, nil)
	f.svc = NewService(f.repo, f.treatments)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

// withTemplate makes the treatment's consent template loadable
func (f *fixture) withTemplate() *fixture {
	f.repo.On("GetTemplate", mock.Anything, f.template.ID).Return(f.template, nil)
	return f
}

func (f *fixture) staff() *model.Principal {
	return &model.Principal{ID: uuid.New(), Kind: auth.SubjectProfessional, ClinicID: &f.clinicID}
}

func TestSubmitSigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture().withTemplate()
	userID := uuid.New()
	f.repo.On("Submit", ctx, mock.AnythingOfType("*model.PatientConsent"), model.AppointmentConsentCompleted).Return(nil)

	c, err := f.svc.Submit(ctx, userID, &model.SubmitConsentRequest{
		TreatmentID: f.treatment.ID,
		Responses:   model.JSONMap{"allergies": "none", "agree": true},
		Signed:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConsentSigned, c.Status)
	assert.Equal(t, 3, c.TemplateVersion)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), *c.ExpiresAt)
	f.repo.AssertExpectations(t)
}

func TestSubmitUnsignedCascadesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture().withTemplate()
	f.repo.On("Submit", ctx, mock.AnythingOfType("*model.PatientConsent"), model.AppointmentConsentPending).Return(nil)

	c, err := f.svc.Submit(ctx, uuid.New(), &model.SubmitConsentRequest{
		TreatmentID: f.treatment.ID,
		Responses:   model.JSONMap{},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ConsentPending, c.Status)
	assert.Nil(t, c.SignedAt)
}

func TestSubmitRejectsMissingRequiredFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture().withTemplate()

	_, err := f.svc.Submit(ctx, uuid.New(), &model.SubmitConsentRequest{
		TreatmentID: f.treatment.ID,
		Responses:   model.JSONMap{"allergies": "none", "agree": false},
		Signed:      true,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	f.repo.AssertNumberOfCalls(t, "Submit", 0)
}

func TestApproveCascadesAndEmitsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	expires := fixedNow.AddDate(0, 0, 10)
	c := &model.PatientConsent{
		Base:        model.Base{ID: uuid.New()},
		UserID:      uuid.New(),
		TreatmentID: f.treatment.ID,
		Status:      model.ConsentSigned,
		ExpiresAt:   &expires,
	}
	f.repo.On("GetByID", ctx, c.ID).Return(c, nil)
	f.repo.On("Review", ctx, c, model.AppointmentConsentApproved, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e != nil && e.EventType == model.EventConsentApproved && e.AggregateID == c.ID
	})).Return(nil)

	staff := f.staff()
	approved, err := f.svc.Approve(ctx, staff, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsentApproved, approved.Status)
	assert.Equal(t, staff.ID, *approved.ApprovedBy)
	assert.True(t, approved.IsValidAt(fixedNow))
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "GetTemplate", mock.Anything, mock.Anything)
}

func TestApproveGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	pending := &model.PatientConsent{Base: model.Base{ID: uuid.New()}, TreatmentID: f.treatment.ID, Status: model.ConsentPending}
	f.repo.On("GetByID", ctx, pending.ID).Return(pending, nil)
	_, err := f.svc.Approve(ctx, f.staff(), pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	other := uuid.New()
	outsider := &model.Principal{ID: uuid.New(), Kind: auth.SubjectClinic, ClinicID: &other}
	_, err = f.svc.Approve(ctx, outsider, pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	customer := &model.Principal{ID: uuid.New(), Kind: auth.SubjectUser, ClinicID: &f.clinicID}
	_, err = f.svc.Approve(ctx, customer, pending.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	f.repo.AssertNumberOfCalls(t, "Review", 0)
}

func TestRejectFallsBackToPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := &model.PatientConsent{Base: model.Base{ID: uuid.New()}, TreatmentID: f.treatment.ID, Status: model.ConsentSigned}
	f.repo.On("GetByID", ctx, c.ID).Return(c, nil)
	f.repo.On("Review", ctx, c, model.AppointmentConsentPending, mock.Anything).Return(nil)

	rejected, err := f.svc.Reject(ctx, f.staff(), c.ID, "  photo missing ")
	require.NoError(t, err)
	assert.Equal(t, model.ConsentRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "photo missing", *rejected.RejectionReason)
}

func TestUpdateTemplateVersioning(t *testing.T) {
	ctx := context.Background()
	f := newFixture().withTemplate()
	f.repo.On("UpdateTemplate", ctx, f.template).Return(nil)

	inactive := false
	tpl, err := f.svc.UpdateTemplate(ctx, f.clinicID, f.template.ID, &model.UpdateConsentTemplateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 3, tpl.Version)

	days := 60
	tpl, err = f.svc.UpdateTemplate(ctx, f.clinicID, f.template.ID, &model.UpdateConsentTemplateRequest{ValidityDays: &days})
	require.NoError(t, err)
	assert.Equal(t, 4, tpl.Version)

	_, err = f.svc.UpdateTemplate(ctx, uuid.New(), f.template.ID, &model.UpdateConsentTemplateRequest{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCreateTemplateRejectsDuplicateKeys(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateTemplate(context.Background(), f.clinicID, &model.CreateConsentTemplateRequest{
		Title:        "Peel",
		ValidityDays: 30,
		Fields: []model.ConsentField{
			{Key: "a", Label: "A", Type: model.FieldText},
			{Key: "a", Label: "A again", Type: model.FieldText},
		},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
