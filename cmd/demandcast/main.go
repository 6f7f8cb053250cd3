package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/planora/demandcast/internal/config"
	"github.com/planora/demandcast/internal/drive"
	"github.com/planora/demandcast/internal/pipeline"
	"github.com/planora/demandcast/internal/repository/postgres"
	"github.com/planora/demandcast/internal/scheduler"
	"github.com/planora/demandcast/internal/storage"
	"github.com/planora/demandcast/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "demandcast",
		Usage: "Forecast product demand and flag stock-out risk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the forecasting pipeline once",
				Flags:  runFlags(),
				Action: runPipeline,
			},
			{
				Name:  "schedule",
				Usage: "Run the forecasting pipeline on a schedule",
				Flags: append(runFlags(),
					&cli.StringFlag{
						Name:  "daily",
						Usage: "Run every day at HH:MM",
					},
					&cli.IntFlag{
						Name:  "every-days",
						Usage: "Run every N days",
					},
				),
				Action: runScheduled,
			},
			{
				Name:   "seed",
				Usage:  "Load a previously exported forecast/risk CSV pair into the database",
				Flags:  seedFlags(),
				Action: runSeeder,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "sales-file", Usage: "Sales history CSV"},
		&cli.StringFlag{Name: "stock-file", Usage: "Inventory snapshot CSV"},
		&cli.StringFlag{Name: "output-dir", Usage: "Directory for generated reports"},
		&cli.StringFlag{Name: "mode", Usage: "Forecast mode (combined, trend, seasonal, moving_average)"},
		&cli.IntFlag{Name: "periods", Usage: "Number of future periods to forecast"},
		&cli.Int64Flag{Name: "seed", Usage: "Random seed for the noise component"},
		&cli.BoolFlag{Name: "strict", Usage: "Fail when inventory input is empty"},
		&cli.StringFlag{
			Name:    "drive-folder",
			Usage:   "Google Drive folder path to sync input files from before the run",
			EnvVars: []string{"DRIVE_INPUT_FOLDER"},
		},
		&cli.BoolFlag{Name: "persist", Usage: "Persist run results to postgres"},
		&cli.BoolFlag{Name: "upload", Usage: "Upload generated reports to object storage"},
	}
}

// buildRunner applies CLI overrides on top of the env config and wires the
// optional collaborators.
func buildRunner(c *cli.Context) (*pipeline.Runner, error) {
	cfg := config.Load()

	if c.IsSet("sales-file") {
		cfg.App.SalesFile = c.String("sales-file")
	}
	if c.IsSet("stock-file") {
		cfg.App.StockFile = c.String("stock-file")
	}
	if c.IsSet("output-dir") {
		cfg.App.OutputDir = c.String("output-dir")
	}
	if c.IsSet("mode") {
		cfg.Forecast.Mode = c.String("mode")
	}
	if c.IsSet("periods") {
		cfg.Forecast.Periods = c.Int("periods")
	}
	if c.IsSet("seed") {
		cfg.Forecast.Seed = c.Int64("seed")
	}
	if c.IsSet("strict") {
		cfg.Forecast.StrictInventory = c.Bool("strict")
	}

	if folder := c.String("drive-folder"); folder != "" {
		driveService, err := drive.NewService(c.Context, os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize drive service: %w", err)
		}
		if _, err := drive.NewSyncer(driveService, cfg.App.InputDir).SyncFolder(folder); err != nil {
			return nil, fmt.Errorf("failed to sync drive folder: %w", err)
		}
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return nil, err
	}

	if c.Bool("persist") {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		runner.WithRepository(postgres.NewForecastRepository(db))
	}

	if c.Bool("upload") {
		store, err := storage.NewMinioClient(c.Context, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		runner.WithStorage(store)
	}

	return runner, nil
}

func runPipeline(c *cli.Context) error {
	runner, err := buildRunner(c)
	if err != nil {
		return err
	}

	summary, err := runner.Run(c.Context)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runScheduled(c *cli.Context) error {
	runner, err := buildRunner(c)
	if err != nil {
		return err
	}

	sched := scheduler.New(func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	})

	switch {
	case c.String("daily") != "":
		if err := sched.Daily(c.String("daily")); err != nil {
			return err
		}
	case c.Int("every-days") > 0:
		if err := sched.EveryNDays(c.Int("every-days")); err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --daily or --every-days is required")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sched.Start(ctx)
	return nil
}
