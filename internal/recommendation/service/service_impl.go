package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/recommendation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("recommendation.service"),
		repo: p.Repo,
	}
}

func (s *Service) List(ctx context.Context, projectID snowflake.ID) ([]domain.Recommendation, error) {
	recs, err := s.repo.ListByProject(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	domain.SortForPresentation(recs)
	return recs, nil
}

func (s *Service) Summary(ctx context.Context, projectID snowflake.ID) (domain.Summary, error) {
	recs, err := s.repo.ListByProject(ctx, s.db, projectID)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(recs), nil
}
