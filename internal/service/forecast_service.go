package service

import (
	"context"
	"errors"

	"github.com/planora/demandcast/internal/cache"
	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/pipeline"
	"github.com/planora/demandcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// ErrNoRuns is returned when no pipeline run has been persisted yet.
var ErrNoRuns = errors.New("no forecast runs available")

// ErrNoRunner is returned by TriggerRun when the service was built without a
// pipeline run function.
var ErrNoRunner = errors.New("pipeline runner not configured")

// RunFunc triggers one pipeline execution.
type RunFunc func(ctx context.Context) (*pipeline.RunSummary, error)

// ForecastService serves persisted forecast and risk data to the API, with a
// cache in front of the risk summary.
type ForecastService struct {
	repo  repository.ForecastRepository
	cache cache.RiskCache
	run   RunFunc
}

func NewForecastService(repo repository.ForecastRepository, cacheImpl cache.RiskCache, run RunFunc) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRiskCache()
	}
	if run == nil {
		run = func(context.Context) (*pipeline.RunSummary, error) {
			return nil, ErrNoRunner
		}
	}
	return &ForecastService{repo: repo, cache: cacheImpl, run: run}
}

// TriggerRun executes the pipeline synchronously and invalidates the cache on
// success.
func (s *ForecastService) TriggerRun(ctx context.Context) (*pipeline.RunSummary, error) {
	summary, err := s.run(ctx)
	if err != nil {
		return summary, err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("risk cache invalidation failed")
	}
	return summary, nil
}

// ListRuns returns recent persisted runs.
func (s *ForecastService) ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error) {
	return s.repo.ListRuns(ctx, limit)
}

// GetLatestRisk returns the latest run together with a page of its risk rows.
func (s *ForecastService) GetLatestRisk(ctx context.Context, filter domain.RiskFilter) (*domain.ForecastRun, []domain.RiskAssessment, int, error) {
	run, err := s.repo.GetLatestRun(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	if run == nil {
		return nil, nil, 0, ErrNoRuns
	}

	assessments, total, err := s.repo.GetRiskAssessments(ctx, run.ID, filter)
	if err != nil {
		return nil, nil, 0, err
	}
	return run, assessments, total, nil
}

// GetLatestRiskSummary returns the latest run's per-status counts, cached.
func (s *ForecastService) GetLatestRiskSummary(ctx context.Context) (*domain.ForecastRun, []domain.RiskSummary, error) {
	run, err := s.repo.GetLatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, ErrNoRuns
	}

	if summaries, ok, err := s.cache.GetSummary(ctx, run.ID); err == nil && ok {
		return run, summaries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("risk cache get failed")
	}

	summaries, err := s.repo.GetRiskSummary(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.cache.SetSummary(ctx, run.ID, summaries); err != nil {
		log.Warn().Err(err).Msg("risk cache set failed")
	}

	return run, summaries, nil
}

// GetLatestForecasts returns the latest run's forecast rows, optionally for a
// single product.
func (s *ForecastService) GetLatestForecasts(ctx context.Context, product string) (*domain.ForecastRun, []domain.ForecastPoint, error) {
	run, err := s.repo.GetLatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, ErrNoRuns
	}

	points, err := s.repo.GetForecasts(ctx, run.ID, product)
	if err != nil {
		return nil, nil, err
	}
	return run, points, nil
}
