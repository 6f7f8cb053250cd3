package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/repository"
)

// ForecastRepository is the postgres-backed persistence for pipeline runs.
type ForecastRepository struct {
	db *DB
}

// NewForecastRepository creates a repository over the shared pool.
func NewForecastRepository(db *DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

var _ repository.ForecastRepository = (*ForecastRepository)(nil)

// SaveRun inserts the run header plus all forecast and risk rows in one
// transaction and returns the new run ID.
func (r *ForecastRepository) SaveRun(ctx context.Context, run *domain.ForecastRun, points []domain.ForecastPoint, assessments []domain.RiskAssessment) (int64, error) {
	var runID int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO forecast_runs (mode, periods, seed, product_count, at_risk_count, started_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			run.Mode, run.Periods, run.Seed, run.ProductCount, run.AtRiskCount, run.StartedAt, run.CompletedAt,
		).Scan(&runID)
		if err != nil {
			return fmt.Errorf("failed to insert forecast run: %w", err)
		}

		pointStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO forecast_points (run_id, product, horizon_step, forecast_demand)
			 VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("failed to prepare forecast insert: %w", err)
		}
		defer pointStmt.Close()

		for _, p := range points {
			if _, err := pointStmt.ExecContext(ctx, runID, p.Product, p.HorizonStep, p.ForecastDemand); err != nil {
				return fmt.Errorf("failed to insert forecast point for %s: %w", p.Product, err)
			}
		}

		riskStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO risk_assessments (run_id, product, expected_consumption, current_stock, stock_out_risk, shortage_qty, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return fmt.Errorf("failed to prepare risk insert: %w", err)
		}
		defer riskStmt.Close()

		for _, a := range assessments {
			if _, err := riskStmt.ExecContext(ctx, runID, a.Product, a.ExpectedConsumption, a.CurrentStock, a.StockOutRisk, a.ShortageQty, string(a.Status)); err != nil {
				return fmt.Errorf("failed to insert risk assessment for %s: %w", a.Product, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	run.ID = runID
	return runID, nil
}

// GetLatestRun returns the most recently completed run, or nil when no run
// has been persisted yet.
func (r *ForecastRepository) GetLatestRun(ctx context.Context) (*domain.ForecastRun, error) {
	var run domain.ForecastRun
	err := r.db.GetContext(ctx, &run,
		`SELECT id, mode, periods, seed, product_count, at_risk_count, started_at, completed_at
		 FROM forecast_runs
		 ORDER BY completed_at DESC
		 LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first.
func (r *ForecastRepository) ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]domain.ForecastRun, 0, limit)
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, mode, periods, seed, product_count, at_risk_count, started_at, completed_at
		 FROM forecast_runs
		 ORDER BY completed_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetForecasts returns a run's forecast rows, optionally filtered by product.
func (r *ForecastRepository) GetForecasts(ctx context.Context, runID int64, product string) ([]domain.ForecastPoint, error) {
	query := `SELECT product, horizon_step, forecast_demand
		 FROM forecast_points
		 WHERE run_id = $1`
	args := []interface{}{runID}
	if product != "" {
		query += ` AND product = $2`
		args = append(args, product)
	}
	query += ` ORDER BY product, horizon_step`

	points := make([]domain.ForecastPoint, 0)
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get forecasts: %w", err)
	}
	return points, nil
}

// GetRiskAssessments returns a page of a run's risk rows plus the total count.
func (r *ForecastRepository) GetRiskAssessments(ctx context.Context, runID int64, filter domain.RiskFilter) ([]domain.RiskAssessment, int, error) {
	where := []string{"run_id = $1"}
	args := []interface{}{runID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(filter.Products) > 0 {
		placeholders := make([]string, 0, len(filter.Products))
		for _, p := range filter.Products {
			args = append(args, p)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = append(where, fmt.Sprintf("product IN (%s)", strings.Join(placeholders, ", ")))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		fmt.Sprintf(`SELECT COUNT(*) FROM risk_assessments WHERE %s`, whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count risk assessments: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	args = append(args, pageSize, (page-1)*pageSize)

	assessments := make([]domain.RiskAssessment, 0, pageSize)
	query := fmt.Sprintf(
		`SELECT product, expected_consumption, current_stock, stock_out_risk, shortage_qty, status
		 FROM risk_assessments
		 WHERE %s
		 ORDER BY shortage_qty DESC, product
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get risk assessments: %w", err)
	}

	return assessments, total, nil
}

// GetRiskSummary counts a run's risk rows per status.
func (r *ForecastRepository) GetRiskSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, error) {
	summaries := make([]domain.RiskSummary, 0, 3)
	err := r.db.SelectContext(ctx, &summaries,
		`SELECT status, COUNT(*) AS count
		 FROM risk_assessments
		 WHERE run_id = $1
		 GROUP BY status
		 ORDER BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get risk summary: %w", err)
	}
	return summaries, nil
}
