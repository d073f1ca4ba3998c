package status

import (
	"context"

	"github.com/geodesk/atlasfx/internal/status/domain"
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

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("status.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (domain.RefreshStatus, error) {
	row, err := s.repo.Get(ctx, s.db)
	if err != nil {
		return domain.RefreshStatus{}, err
	}
	return *row, nil
}
