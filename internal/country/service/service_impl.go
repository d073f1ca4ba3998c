package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geodesk/atlasfx/internal/clock"
	"github.com/geodesk/atlasfx/internal/config"
	"github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/geodesk/atlasfx/internal/fetch"
	obsmetrics "github.com/geodesk/atlasfx/internal/observability/metrics"
	"github.com/geodesk/atlasfx/internal/reconcile"
	"github.com/geodesk/atlasfx/internal/reflock"
	statusdomain "github.com/geodesk/atlasfx/internal/status/domain"
	"github.com/geodesk/atlasfx/internal/summary"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrRefreshInProgress is returned when the optional advisory lock is
// configured and another refresh currently holds it.
var ErrRefreshInProgress = errors.New("refresh_in_progress")

const (
	refreshLockKey = "atlasfx:refresh"
	refreshLockTTL = 2 * time.Minute
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Source     fetch.Source
	Engine     *reconcile.Engine
	Repo       domain.Repository
	StatusRepo statusdomain.Repository
	Holder     *config.EstimatorConfigHolder
	Renderer   summary.Renderer
	Locker     *reflock.Locker     `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	source     fetch.Source
	engine     *reconcile.Engine
	repo       domain.Repository
	statusRepo statusdomain.Repository
	conf       func() config.EstimatorConfig
	renderer   summary.Renderer
	locker     *reflock.Locker
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("country.service"),
		clock:      p.Clock,
		source:     p.Source,
		engine:     p.Engine,
		repo:       p.Repo,
		statusRepo: p.StatusRepo,
		conf:       p.Holder.Get,
		renderer:   p.Renderer,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}
}

// Refresh runs the full fetch-reconcile-persist pipeline. Both upstream
// datasets are fetched concurrently; either failure aborts before any
// storage mutation. The reconciled batch and the status row are applied in
// one transaction, so the store never reflects a partial refresh. The top-N
// read and the summary image are best-effort presentation steps attempted
// only after commit.
func (s *Service) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	started := s.clock.Now()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, refreshLockKey, refreshLockTTL)
		if err != nil {
			return domain.RefreshResult{}, err
		}
		if !ok {
			return domain.RefreshResult{}, ErrRefreshInProgress
		}
		defer func() {
			_ = s.locker.Release(context.WithoutCancel(ctx), refreshLockKey, token)
		}()
	}

	var (
		countries []fetch.Country
		rates     map[string]float64
	)
	g, fetchCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		countries, err = s.source.FetchCountries(fetchCtx)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = s.source.FetchExchangeRates(fetchCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordRefreshRun(ctx, "upstream_error", s.clock.Now().Sub(started))
		return domain.RefreshResult{}, err
	}

	// One timestamp for every row in the batch.
	now := s.clock.Now()
	batch := s.engine.Build(countries, rates, now)

	// A client disconnect must not leave the transaction open; the apply
	// runs to commit or rollback on its own terms.
	applyCtx := context.WithoutCancel(ctx)
	err := s.db.WithContext(applyCtx).Transaction(func(tx *gorm.DB) error {
		for i := range batch {
			if err := s.repo.Upsert(applyCtx, tx, &batch[i]); err != nil {
				return err
			}
		}
		return s.statusRepo.SetRefreshed(applyCtx, tx, int64(len(batch)), now)
	})
	if err != nil {
		s.metrics.RecordRefreshRun(ctx, "storage_error", s.clock.Now().Sub(started))
		return domain.RefreshResult{}, err
	}

	s.metrics.RecordRefreshRun(ctx, "ok", s.clock.Now().Sub(started))
	s.metrics.RecordCountriesUpserted(ctx, len(batch))
	s.log.Info("refresh applied",
		zap.Int("total_countries", len(batch)),
		zap.Time("last_refreshed_at", now),
	)

	s.renderSummary(applyCtx, int64(len(batch)), now)

	return domain.RefreshResult{
		TotalCountries:  len(batch),
		LastRefreshedAt: now,
	}, nil
}

// renderSummary is attempted after commit; its failure never unwinds an
// already-applied refresh.
func (s *Service) renderSummary(ctx context.Context, total int64, at time.Time) {
	top, err := s.repo.TopByGDP(ctx, s.db, s.conf().TopN)
	if err != nil {
		s.metrics.RecordSummaryRender(ctx, "read_error")
		s.log.Warn("top-N read failed after refresh", zap.Error(err))
		return
	}
	if err := s.renderer.Render(total, top, at); err != nil {
		s.metrics.RecordSummaryRender(ctx, "render_error")
		s.log.Warn("summary image render failed", zap.Error(err))
		return
	}
	s.metrics.RecordSummaryRender(ctx, "ok")
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Country, error) {
	countries, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Region:   strings.TrimSpace(req.Region),
		Currency: strings.TrimSpace(req.Currency),
		Sort:     req.Sort,
	})
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (domain.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Country{}, domain.ErrInvalidName
	}

	country, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return domain.Country{}, err
	}
	if country == nil {
		return domain.Country{}, domain.ErrNotFound
	}
	return *country, nil
}

// DeleteByName removes the row, then recounts into the status row as a
// second independent operation. A crash in between leaves a transiently
// stale count, which the next refresh or delete corrects.
func (s *Service) DeleteByName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}

	affected, err := s.repo.DeleteByName(ctx, s.db, name)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	count, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return err
	}
	if err := s.statusRepo.SetTotal(ctx, s.db, count); err != nil {
		return err
	}

	s.log.Info("country deleted",
		zap.String("name", name),
		zap.Int64("total_countries", count),
	)
	return nil
}
