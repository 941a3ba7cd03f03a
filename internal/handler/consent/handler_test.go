package consent

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/beauty-api/internal/handler/handlertest"
	"github.com/jwalitptl/beauty-api/internal/model"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateTemplate(ctx context.Context, clinicID uuid.UUID, req *model.CreateConsentTemplateRequest) (*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, clinicID, req)
	tpl, _ := args.Get(0).(*model.ConsentFormTemplate)
	return tpl, args.Error(1)
}

func (m *mockService) GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, id)
	tpl, _ := args.Get(0).(*model.ConsentFormTemplate)
	return tpl, args.Error(1)
}

func (m *mockService) ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, clinicID)
	list, _ := args.Get(0).([]*model.ConsentFormTemplate)
	return list, args.Error(1)
}

func (m *mockService) UpdateTemplate(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateConsentTemplateRequest) (*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, clinicID, id, req)
	tpl, _ := args.Get(0).(*model.ConsentFormTemplate)
	return tpl, args.Error(1)
}

func (m *mockService) Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitConsentRequest) (*model.PatientConsent, error) {
	args := m.Called(ctx, userID, req)
	pc, _ := args.Get(0).(*model.PatientConsent)
	return pc, args.Error(1)
}

func (m *mockService) GetConsent(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error) {
	args := m.Called(ctx, principal, id)
	pc, _ := args.Get(0).(*model.PatientConsent)
	return pc, args.Error(1)
}

func (m *mockService) ListConsents(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.PatientConsent)
	return list, args.Error(1)
}

func (m *mockService) Approve(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.PatientConsent, error) {
	args := m.Called(ctx, principal, id)
	pc, _ := args.Get(0).(*model.PatientConsent)
	return pc, args.Error(1)
}

func (m *mockService) Reject(ctx context.Context, principal *model.Principal, id uuid.UUID, reason string) (*model.PatientConsent, error) {
	args := m.Called(ctx, principal, id, reason)
	pc, _ := args.Get(0).(*model.PatientConsent)
	return pc, args.Error(1)
}

func TestSubmit(t *testing.T) {
	userID, treatmentID := uuid.New(), uuid.New()
	body := `{"treatment_id":"` + treatmentID.String() + `","responses":{"allergies":"none","agree":true},"signed":true}`

	t.Run("customer", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Submit", mock.Anything, userID, mock.MatchedBy(func(req *model.SubmitConsentRequest) bool {
			return req.TreatmentID == treatmentID && req.Signed && req.Responses["agree"] == true
		})).Return(&model.PatientConsent{Status: model.ConsentSigned}, nil)

		r := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(userID))
		w := handlertest.Do(r, http.MethodPost, "/api/v1/consents", body)
		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("clinic account", func(t *testing.T) {
		svc := &mockService{}
		r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(uuid.New()))
		w := handlertest.Do(r, http.MethodPost, "/api/v1/consents", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNumberOfCalls(t, "Submit", 0)
	})
}

func TestListConsents_Scope(t *testing.T) {
	userID, clinicID := uuid.New(), uuid.New()

	t.Run("customer sees own", func(t *testing.T) {
		svc := &mockService{}
		svc.On("ListConsents", mock.Anything, mock.MatchedBy(func(f *model.ConsentFilters) bool {
			return f.UserID != nil && *f.UserID == userID && f.ClinicID == nil && f.Status == model.ConsentSigned
		})).Return([]*model.PatientConsent{}, nil)

		r := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(userID))
		w := handlertest.Do(r, http.MethodGet, "/api/v1/consents?status=signed", "")
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("staff sees clinic", func(t *testing.T) {
		svc := &mockService{}
		svc.On("ListConsents", mock.Anything, mock.MatchedBy(func(f *model.ConsentFilters) bool {
			return f.UserID == nil && f.ClinicID != nil && *f.ClinicID == clinicID
		})).Return([]*model.PatientConsent{}, nil)

		r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Professional(uuid.New(), clinicID))
		w := handlertest.Do(r, http.MethodGet, "/api/v1/consents", "")
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad status", func(t *testing.T) {
		svc := &mockService{}
		r := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(userID))
		w := handlertest.Do(r, http.MethodGet, "/api/v1/consents?status=lost", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApprove(t *testing.T) {
	clinicID, id := uuid.New(), uuid.New()

	svc := &mockService{}
	svc.On("Approve", mock.Anything, mock.Anything, id).Return(&model.PatientConsent{Status: model.ConsentApproved}, nil)
	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(clinicID))
	w := handlertest.Do(r, http.MethodPost, "/api/v1/consents/"+id.String()+"/approve", "")
	assert.Equal(t, http.StatusOK, w.Code)

	customer := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(uuid.New()))
	w = handlertest.Do(customer, http.MethodPost, "/api/v1/consents/"+id.String()+"/approve", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNumberOfCalls(t, "Approve", 1)
}

func TestReject(t *testing.T) {
	clinicID, id := uuid.New(), uuid.New()

	svc := &mockService{}
	svc.On("Reject", mock.Anything, mock.Anything, id, "missing signature").
		Return(&model.PatientConsent{Status: model.ConsentRejected}, nil)
	svc.On("Reject", mock.Anything, mock.Anything, id, "").
		Return(nil, apperrors.Conflict("consent cannot be rejected", nil))

	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(clinicID))
	w := handlertest.Do(r, http.MethodPost, "/api/v1/consents/"+id.String()+"/reject", `{"reason":"missing signature"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = handlertest.Do(r, http.MethodPost, "/api/v1/consents/"+id.String()+"/reject", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTemplates_ClinicAccess(t *testing.T) {
	clinicID := uuid.New()
	body := `{"title":"Peel consent","fields":[{"key":"agree","label":"I agree","type":"CHECKBOX","required":true}],"validity_days":365}`

	svc := &mockService{}
	svc.On("CreateTemplate", mock.Anything, clinicID, mock.Anything).Return(&model.ConsentFormTemplate{Version: 1}, nil)

	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(clinicID))
	w := handlertest.Do(r, http.MethodPost, "/api/v1/clinics/"+clinicID.String()+"/consent-templates", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = handlertest.Do(r, http.MethodPost, "/api/v1/clinics/"+clinicID.String()+"/consent-templates",
		`{"title":"Peel consent","fields":[{"key":"agree","label":"I agree","type":"RADIO"}],"validity_days":365}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(uuid.New()))
	w = handlertest.Do(other, http.MethodPost, "/api/v1/clinics/"+clinicID.String()+"/consent-templates", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNumberOfCalls(t, "CreateTemplate", 1)
}
