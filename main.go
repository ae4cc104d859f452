package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/kanban-be/internal/api"
	"github.com/isdelr/kanban-be/internal/auth"
	"github.com/isdelr/kanban-be/internal/config"
	"github.com/isdelr/kanban-be/internal/database"
	"github.com/isdelr/kanban-be/internal/logger"
	"github.com/isdelr/kanban-be/internal/maintenance"
	"github.com/isdelr/kanban-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	log.Info().Str("dialect", string(db.Dialect)).Msg("Database ready")

	// Set up services
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(db, tokens, cfg.BcryptCost)
	taskService := services.NewTaskService(db)

	// Set up and run the background maintenance job
	var scheduler *maintenance.Scheduler
	if cfg.MaintenanceEnabled() {
		scheduler, err = maintenance.NewScheduler(db, cfg.MaintenanceCron)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure maintenance scheduler")
		}
		scheduler.Run()
	}

	// Set up router
	router := api.NewRouter(cfg.CORSOrigins, tokens, userService, taskService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
