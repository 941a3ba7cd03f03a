package wellness

import (
	"context"
	"strings"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/repository"
	"github.com/jwalitptl/beauty-api/internal/service"
)

const defaultListLimit = 20

type WellnessServicer interface {
	Latest(ctx context.Context) (*model.WellnessTip, error)
	ListTips(ctx context.Context, limit int) ([]*model.WellnessTip, error)
	CreateTip(ctx context.Context, req *model.CreateWellnessTipRequest) (*model.WellnessTip, error)
}

type Service struct {
	repo repository.WellnessRepository
}

func NewService(repo repository.WellnessRepository) *Service {
	return &Service{repo: repo}
}

// Latest returns nil when no active tip exists
func (s *Service) Latest(ctx context.Context) (*model.WellnessTip, error) {
	tip, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, service.RepoError(err, "wellness tip")
	}
	return tip, nil
}

func (s *Service) ListTips(ctx context.Context, limit int) ([]*model.WellnessTip, error) {
	if limit <= 0 || limit > model.MaxPageSize {
		limit = defaultListLimit
	}
	out, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, service.RepoError(err, "wellness tip")
	}
	return out, nil
}

func (s *Service) CreateTip(ctx context.Context, req *model.CreateWellnessTipRequest) (*model.WellnessTip, error) {
	tip := &model.WellnessTip{
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, tip); err != nil {
		return nil, service.RepoError(err, "wellness tip")
	}
	return tip, nil
}
