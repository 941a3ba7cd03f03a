package wellness

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

func (m *mockService) Latest(ctx context.Context) (*model.WellnessTip, error) {
	args := m.Called(ctx)
	tip, _ := args.Get(0).(*model.WellnessTip)
	return tip, args.Error(1)
}

func (m *mockService) ListTips(ctx context.Context, limit int) ([]*model.WellnessTip, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*model.WellnessTip)
	return list, args.Error(1)
}

func (m *mockService) CreateTip(ctx context.Context, req *model.CreateWellnessTipRequest) (*model.WellnessTip, error) {
	args := m.Called(ctx, req)
	tip, _ := args.Get(0).(*model.WellnessTip)
	return tip, args.Error(1)
}

func TestLatest_None(t *testing.T) {
	svc := &mockService{}
	svc.On("Latest", mock.Anything).Return(nil, nil)

	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(uuid.New()))
	w := handlertest.Do(r, http.MethodGet, "/api/v1/wellness-tips/latest", "")
	assert.Equal(t, http.StatusOK, w.Code)

	env := handlertest.Decode(t, w, nil)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestListTips(t *testing.T) {
	svc := &mockService{}
	svc.On("ListTips", mock.Anything, 5).Return([]*model.WellnessTip{{Title: "Hydrate"}}, nil)

	r := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(uuid.New()))
	w := handlertest.Do(r, http.MethodGet, "/api/v1/wellness-tips?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = handlertest.Do(r, http.MethodGet, "/api/v1/wellness-tips?limit=five", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "ListTips", 1)
}

func TestCreateTip(t *testing.T) {
	body := `{"title":"Hydrate","content":"Drink water after a peel."}`

	svc := &mockService{}
	svc.On("CreateTip", mock.Anything, mock.Anything).Return(&model.WellnessTip{Title: "Hydrate", IsActive: true}, nil)

	clinic := handlertest.NewRouter(t, NewHandler(svc), handlertest.Clinic(uuid.New()))
	w := handlertest.Do(clinic, http.MethodPost, "/api/v1/wellness-tips", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	customer := handlertest.NewRouter(t, NewHandler(svc), handlertest.User(uuid.New()))
	w = handlertest.Do(customer, http.MethodPost, "/api/v1/wellness-tips", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNumberOfCalls(t, "CreateTip", 1)
}
