package wellness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository/mocks"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

func TestLatestWithoutTips(t *testing.T) {
	repo := &mocks.WellnessRepository{}
	repo.On("Latest", mock.Anything).Return(nil, nil)

	tip, err := NewService(repo).Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tip)
}

func TestListTipsClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.WellnessRepository{}
	repo.On("List", ctx, defaultListLimit).Return([]*model.WellnessTip{}, nil).Twice()
	repo.On("List", ctx, 5).Return([]*model.WellnessTip{}, nil).Once()

	svc := NewService(repo)
	_, err := svc.ListTips(ctx, 0)
	require.NoError(t, err)
	_, err = svc.ListTips(ctx, 1000)
	require.NoError(t, err)
	_, err = svc.ListTips(ctx, 5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateTip(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.WellnessRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*model.WellnessTip")).Return(nil).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*model.WellnessTip")).Return(errors.New("db down")).Once()

	svc := NewService(repo)
	tip, err := svc.CreateTip(ctx, &model.CreateWellnessTipRequest{Title: " Hydrate ", Content: "Drink water", Category: "Skin"})
	require.NoError(t, err)
	assert.Equal(t, "Hydrate", tip.Title)
	assert.Equal(t, "skin", tip.Category)
	assert.True(t, tip.IsActive)

	_, err = svc.CreateTip(ctx, &model.CreateWellnessTipRequest{Title: "x", Content: "y"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}
