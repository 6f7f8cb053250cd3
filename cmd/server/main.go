// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planora/demandcast/internal/api"
	"github.com/planora/demandcast/internal/cache"
	"github.com/planora/demandcast/internal/config"
	"github.com/planora/demandcast/internal/pipeline"
	"github.com/planora/demandcast/internal/repository/postgres"
	"github.com/planora/demandcast/internal/service"
	"github.com/planora/demandcast/internal/storage"
	"github.com/planora/demandcast/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	repo := postgres.NewForecastRepository(db)

	riskCache, err := cache.NewRiskCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Risk cache unavailable, continuing without it")
		riskCache = cache.NewNoopRiskCache()
	}

	// Build the pipeline run used by POST /api/v1/runs
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid forecast configuration")
	}
	runner.WithRepository(repo)
	if cfg.Storage.Enabled {
		store, err := storage.NewMinioClient(context.Background(), cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, reports stay local")
		} else {
			runner.WithStorage(store)
		}
	}

	forecastService := service.NewForecastService(repo, riskCache, runner.Run)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ForecastService: forecastService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context gives the server 5 seconds to finish in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
