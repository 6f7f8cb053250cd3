package pipeline

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/planora/demandcast/internal/config"
	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/forecast"
	"github.com/planora/demandcast/internal/loader"
	"github.com/planora/demandcast/internal/report"
	"github.com/planora/demandcast/internal/repository"
	"github.com/planora/demandcast/internal/risk"
	"github.com/planora/demandcast/internal/storage"
	"github.com/rs/zerolog/log"
)

// Runner wires the full forecasting pipeline: load, clean, aggregate,
// forecast, evaluate risk, export. Persistence and report upload are optional
// collaborators; the compute stages themselves hold no state between runs.
type Runner struct {
	cfg        *config.Config
	loader     *loader.Loader
	cleaner    *loader.Cleaner
	forecaster *forecast.Forecaster
	evaluator  *risk.Evaluator
	writer     *report.Writer

	repo    repository.ForecastRepository
	storage storage.ObjectStorage
}

// NewRunner validates the forecast configuration and builds a Runner. Usage
// errors (bad periods, mode, frequency) surface here, before any data is read.
func NewRunner(cfg *config.Config) (*Runner, error) {
	mode, err := forecast.ParseMode(cfg.Forecast.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast mode %q: %w", cfg.Forecast.Mode, err)
	}
	freq, err := forecast.ParseFrequency(cfg.Forecast.SeasonalFreq)
	if err != nil {
		return nil, fmt.Errorf("invalid seasonal frequency %q: %w", cfg.Forecast.SeasonalFreq, err)
	}

	forecaster, err := forecast.New(forecast.Options{
		Periods:   cfg.Forecast.Periods,
		Mode:      mode,
		Frequency: freq,
		Weights: forecast.Weights{
			Trend:    cfg.Forecast.TrendWeight,
			Seasonal: cfg.Forecast.SeasonalWeight,
			Noise:    cfg.Forecast.NoiseWeight,
		},
		NoiseScale: cfg.Forecast.NoiseScale,
		Window:     cfg.Forecast.Window,
		Seed:       cfg.Forecast.Seed,
	})
	if err != nil {
		return nil, err
	}

	cleaner, err := loader.NewCleaner(loader.AggFrequency(cfg.Forecast.AggFrequency))
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:        cfg,
		loader:     loader.NewLoader(cfg.App.SalesFile, cfg.App.StockFile),
		cleaner:    cleaner,
		forecaster: forecaster,
		evaluator:  risk.NewEvaluator(cfg.Forecast.StrictInventory),
		writer:     report.NewWriter(cfg.App.OutputDir),
	}, nil
}

// WithRepository attaches a persistence layer. Runs are then recorded with
// their parameters so results stay auditable.
func (r *Runner) WithRepository(repo repository.ForecastRepository) *Runner {
	r.repo = repo
	return r
}

// WithStorage attaches an object store; generated reports are uploaded after
// each run.
func (r *Runner) WithStorage(store storage.ObjectStorage) *Runner {
	r.storage = store
	return r
}

// Run executes the pipeline once. Each invocation is a pure function of the
// input files: nothing is cached across runs.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	started := time.Now()
	summary := &RunSummary{Date: started, Status: StatusProcessing}

	log.Info().Str("mode", r.cfg.Forecast.Mode).Int("periods", r.cfg.Forecast.Periods).
		Msg("starting forecasting pipeline")

	// 1) Load and clean inputs
	rawSales, err := r.loader.LoadSales()
	if err != nil {
		return r.fail(summary, started, fmt.Errorf("failed to load sales data: %w", err))
	}
	summary.SalesRows = len(rawSales)

	inventory, err := r.loader.LoadStock()
	if err != nil {
		return r.fail(summary, started, fmt.Errorf("failed to load stock data: %w", err))
	}

	observations := r.cleaner.Clean(rawSales)
	summary.Observations = len(observations)

	// 2) Aggregate per-product series and forecast
	series := forecast.GroupSeries(observations)
	summary.Products = len(series)

	points, err := r.forecaster.Forecast(ctx, series)
	if err != nil {
		return r.fail(summary, started, fmt.Errorf("forecast failed: %w", err))
	}
	summary.ForecastRows = len(points)

	// 3) Evaluate stock-out risk
	assessments, err := r.evaluator.Evaluate(points, inventory)
	if err != nil {
		return r.fail(summary, started, fmt.Errorf("risk evaluation failed: %w", err))
	}
	for _, a := range assessments {
		switch a.Status {
		case domain.RiskStatusAtRisk:
			summary.AtRiskCount++
		case domain.RiskStatusUnknownInventory:
			summary.UnknownCount++
		}
	}

	// 4) Export report artifacts
	if summary.ForecastCSV, err = r.writer.WriteForecastCSV(started, points); err != nil {
		return r.fail(summary, started, err)
	}
	if summary.RiskCSV, err = r.writer.WriteRiskCSV(started, assessments); err != nil {
		return r.fail(summary, started, err)
	}
	if summary.RiskPDF, err = r.writer.WriteRiskPDF(started, assessments); err != nil {
		return r.fail(summary, started, err)
	}

	// 5) Optional persistence and upload
	if r.repo != nil {
		run := &domain.ForecastRun{
			Mode:         r.cfg.Forecast.Mode,
			Periods:      r.cfg.Forecast.Periods,
			Seed:         r.cfg.Forecast.Seed,
			ProductCount: summary.Products,
			AtRiskCount:  summary.AtRiskCount,
			StartedAt:    started,
			CompletedAt:  time.Now(),
		}
		runID, err := r.repo.SaveRun(ctx, run, points, assessments)
		if err != nil {
			return r.fail(summary, started, fmt.Errorf("failed to persist run: %w", err))
		}
		summary.RunID = runID
	}

	if r.storage != nil {
		for _, artifact := range []string{summary.ForecastCSV, summary.RiskCSV, summary.RiskPDF} {
			key := started.Format("2006/01/02") + "/" + path.Base(artifact)
			if err := r.storage.UploadFile(ctx, key, artifact); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("report upload failed")
				continue
			}
			summary.UploadedKeys = append(summary.UploadedKeys, key)
		}
	}

	summary.Status = StatusCompleted
	summary.Duration = time.Since(started)

	log.Info().Int("products", summary.Products).Int("forecast_rows", summary.ForecastRows).
		Int("at_risk", summary.AtRiskCount).Int("unknown_inventory", summary.UnknownCount).
		Dur("duration", summary.Duration).Msg("pipeline completed")

	return summary, nil
}

func (r *Runner) fail(summary *RunSummary, started time.Time, err error) (*RunSummary, error) {
	summary.Status = StatusFailed
	summary.ErrorMessage = err.Error()
	summary.Duration = time.Since(started)
	return summary, err
}
