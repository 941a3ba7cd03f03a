package professional

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/beauty-api/internal/handler/handlertest"
	"github.com/jwalitptl/beauty-api/internal/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateProfessional(ctx context.Context, clinicID uuid.UUID, req *model.CreateProfessionalRequest) (*model.Professional, error) {
	args := m.Called(ctx, clinicID, req)
	p, _ := args.Get(0).(*model.Professional)
	return p, args.Error(1)
}

func (m *mockService) GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Professional)
	return p, args.Error(1)
}

func (m *mockService) ListProfessionals(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error) {
	args := m.Called(ctx, clinicID, activeOnly)
	list, _ := args.Get(0).([]*model.Professional)
	return list, args.Error(1)
}

func (m *mockService) UpdateProfessional(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateProfessionalRequest) (*model.Professional, error) {
	args := m.Called(ctx, clinicID, id, req)
	p, _ := args.Get(0).(*model.Professional)
	return p, args.Error(1)
}

func TestListProfessionals(t *testing.T) {
	clinicID := uuid.New()
	svc := &mockService{}
	svc.On("ListProfessionals", mock.Anything, clinicID, true).
		Return([]*model.Professional{{FirstName: "Rita", PasswordHash: "secret-hash"}}, nil)

	r := handlertest.NewRouter(t, NewHandler(svc), nil)
	w := handlertest.Do(r, http.MethodGet, "/api/v1/clinics/"+clinicID.String()+"/professionals", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	svc.AssertExpectations(t)
}

func TestCreateProfessional(t *testing.T) {
	clinicID := uuid.New()
	body := `{"email":"rita@example.com","password":"password123","first_name":"Rita","employment_type":"FULL_TIME","is_medical_staff":true}`

	tests := []struct {
		name      string
		principal *model.Principal
		status    int
	}{
		{name: "clinic", principal: handlertest.Clinic(clinicID), status: http.StatusCreated},
		{name: "professional of the clinic", principal: handlertest.Professional(uuid.New(), clinicID), status: http.StatusForbidden},
		{name: "other clinic", principal: handlertest.Clinic(uuid.New()), status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("CreateProfessional", mock.Anything, clinicID, mock.MatchedBy(func(req *model.CreateProfessionalRequest) bool {
				return req.IsMedicalStaff && req.EmploymentType == model.EmploymentFullTime
			})).Return(&model.Professional{ClinicID: clinicID}, nil)

			r := handlertest.NewRouter(t, NewHandler(svc), tt.principal)
			w := handlertest.Do(r, http.MethodPost, "/api/v1/clinics/"+clinicID.String()+"/professionals", body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestGetProfessional_OtherClinic(t *testing.T) {
	clinicID, id := uuid.New(), uuid.New()
	svc := &mockService{}
	svc.On("GetProfessional", mock.Anything, id).Return(&model.Professional{Base: model.Base{ID: id}, ClinicID: uuid.New()}, nil)

	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(clinicID))
	w := handlertest.Do(r, http.MethodGet, "/api/v1/clinics/"+clinicID.String()+"/professionals/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfessional_Rating(t *testing.T) {
	clinicID, id := uuid.New(), uuid.New()
	svc := &mockService{}
	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(clinicID))

	w := handlertest.Do(r, http.MethodPut, "/api/v1/clinics/"+clinicID.String()+"/professionals/"+id.String(), `{"rating":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "UpdateProfessional", 0)
}
