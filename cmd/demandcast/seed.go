package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/planora/demandcast/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS forecast_runs (
	id            BIGSERIAL PRIMARY KEY,
	mode          TEXT NOT NULL,
	periods       INT NOT NULL,
	seed          BIGINT NOT NULL,
	product_count INT NOT NULL,
	at_risk_count INT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS forecast_points (
	id              BIGSERIAL PRIMARY KEY,
	run_id          BIGINT NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
	product         TEXT NOT NULL,
	horizon_step    INT NOT NULL,
	forecast_demand DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS risk_assessments (
	id                   BIGSERIAL PRIMARY KEY,
	run_id               BIGINT NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
	product              TEXT NOT NULL,
	expected_consumption DOUBLE PRECISION NOT NULL,
	current_stock        DOUBLE PRECISION NOT NULL,
	stock_out_risk       BOOLEAN NOT NULL,
	shortage_qty         DOUBLE PRECISION NOT NULL,
	status               TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forecast_points_run ON forecast_points(run_id, product);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_run ON risk_assessments(run_id, status);
`

func seedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db-url",
			Usage:    "Postgres connection URL",
			EnvVars:  []string{"DATABASE_URL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "forecast-csv",
			Usage:    "Forecast CSV exported by a previous run",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "risk-csv",
			Usage:    "Risk CSV exported by a previous run",
			Required: true,
		},
		&cli.StringFlag{Name: "mode", Usage: "Forecast mode the CSVs were produced with", Value: "combined"},
		&cli.IntFlag{Name: "periods", Usage: "Number of periods the CSVs were produced with", Value: 14},
		&cli.Int64Flag{Name: "seed", Usage: "Random seed the CSVs were produced with"},
	}
}

// runSeeder imports a previously exported CSV pair as a run, so historical
// results produced before persistence was enabled stay queryable via the API.
func runSeeder(c *cli.Context) error {
	points, err := readForecastCSV(c.String("forecast-csv"))
	if err != nil {
		return err
	}
	assessments, err := readRiskCSV(c.String("risk-csv"))
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := c.Context
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	products := make(map[string]struct{}, len(points))
	for _, p := range points {
		products[p.Product] = struct{}{}
	}
	atRisk := 0
	for _, a := range assessments {
		if a.StockOutRisk {
			atRisk++
		}
	}

	runID, err := insertRun(ctx, db, domain.ForecastRun{
		Mode:         c.String("mode"),
		Periods:      c.Int("periods"),
		Seed:         c.Int64("seed"),
		ProductCount: len(products),
		AtRiskCount:  atRisk,
		StartedAt:    time.Now(),
		CompletedAt:  time.Now(),
	}, points, assessments)
	if err != nil {
		return err
	}

	log.Info().Int64("run_id", runID).Int("forecast_rows", len(points)).
		Int("risk_rows", len(assessments)).Msg("seeded run from CSV export")
	return nil
}

func insertRun(ctx context.Context, db *sql.DB, run domain.ForecastRun, points []domain.ForecastPoint, assessments []domain.RiskAssessment) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO forecast_runs (mode, periods, seed, product_count, at_risk_count, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		run.Mode, run.Periods, run.Seed, run.ProductCount, run.AtRiskCount, run.StartedAt, run.CompletedAt,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert forecast run: %w", err)
	}

	for _, p := range points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO forecast_points (run_id, product, horizon_step, forecast_demand)
			 VALUES ($1, $2, $3, $4)`,
			runID, p.Product, p.HorizonStep, p.ForecastDemand); err != nil {
			return 0, fmt.Errorf("failed to insert forecast point for %s: %w", p.Product, err)
		}
	}
	for _, a := range assessments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO risk_assessments (run_id, product, expected_consumption, current_stock, stock_out_risk, shortage_qty, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, a.Product, a.ExpectedConsumption, a.CurrentStock, a.StockOutRisk, a.ShortageQty, string(a.Status)); err != nil {
			return 0, fmt.Errorf("failed to insert risk assessment for %s: %w", a.Product, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return runID, nil
}

func readForecastCSV(path string) ([]domain.ForecastPoint, error) {
	rows, err := readCSV(path, 3)
	if err != nil {
		return nil, err
	}

	points := make([]domain.ForecastPoint, 0, len(rows))
	for i, row := range rows {
		step, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("invalid horizon_step on row %d of %s: %w", i+2, path, err)
		}
		demand, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid forecast_demand on row %d of %s: %w", i+2, path, err)
		}
		points = append(points, domain.ForecastPoint{
			Product:        row[0],
			HorizonStep:    step,
			ForecastDemand: demand,
		})
	}
	return points, nil
}

func readRiskCSV(path string) ([]domain.RiskAssessment, error) {
	rows, err := readCSV(path, 6)
	if err != nil {
		return nil, err
	}

	assessments := make([]domain.RiskAssessment, 0, len(rows))
	for i, row := range rows {
		expected, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expected_consumption on row %d of %s: %w", i+2, path, err)
		}
		stock, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid current_stock on row %d of %s: %w", i+2, path, err)
		}
		risky, err := strconv.ParseBool(row[3])
		if err != nil {
			return nil, fmt.Errorf("invalid stock_out_risk on row %d of %s: %w", i+2, path, err)
		}
		shortage, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shortage_qty on row %d of %s: %w", i+2, path, err)
		}
		assessments = append(assessments, domain.RiskAssessment{
			Product:             row[0],
			ExpectedConsumption: expected,
			CurrentStock:        stock,
			StockOutRisk:        risky,
			ShortageQty:         shortage,
			Status:              domain.RiskStatus(row[5]),
		})
	}
	return assessments, nil
}

// readCSV reads all data rows of a headered CSV, enforcing a minimum column
// count.
func readCSV(path string, minCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(row) < minCols {
			return nil, fmt.Errorf("row %d of %s has %d columns, expected %d", len(rows)+2, path, len(row), minCols)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
