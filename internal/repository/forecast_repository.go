package repository

import (
	"context"

	"github.com/planora/demandcast/internal/domain"
)

// ForecastRepository persists pipeline runs so the API can serve them later.
type ForecastRepository interface {
	SaveRun(ctx context.Context, run *domain.ForecastRun, points []domain.ForecastPoint, assessments []domain.RiskAssessment) (int64, error)
	GetLatestRun(ctx context.Context) (*domain.ForecastRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error)
	GetForecasts(ctx context.Context, runID int64, product string) ([]domain.ForecastPoint, error)
	GetRiskAssessments(ctx context.Context, runID int64, filter domain.RiskFilter) ([]domain.RiskAssessment, int, error)
	GetRiskSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, error)
}
