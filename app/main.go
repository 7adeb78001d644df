package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postpilot/app/api"
	"postpilot/app/cfg"
	"postpilot/app/content"
	"postpilot/app/database"
	"postpilot/app/oracle"
	"postpilot/app/pipeline"
	"postpilot/app/predict"
	"postpilot/app/schedule"
	"postpilot/app/scoring"
	"postpilot/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PostPilot", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	profileCache := content.NewProfileCache(appCfg.ProfilesDir)
	if err := profileCache.Run(); err != nil {
		slog.Error("Failed to load user profiles", "dir", appCfg.ProfilesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("User profiles loaded", "count", profileCache.GetProfileCount())

	userRepo := database.NewUserRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)
	draftRepo := database.NewDraftRepository(db)
	weightsRepo := database.NewWeightsRepository(db)

	ctx := context.Background()

	gemini, err := oracle.NewGemini(ctx, appCfg.GeminiAPIKey, appCfg.GeminiModel)
	if err != nil {
		slog.Error("Failed to initialize oracle", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	fetcher := content.NewFetcher(httpClient, appCfg.UserAgent)
	relevance := content.NewRelevanceScorer(gemini, appCfg.RelevanceBatchSize,
		time.Duration(appCfg.RelevanceBatchDelay)*time.Second)

	predictor := predict.NewPredictor(draftRepo)
	engine := scoring.NewEngine(sourceRepo, itemRepo, weightsRepo, predictor)
	optimizer := schedule.NewOptimizer(draftRepo)

	scheduler := tasks.NewScheduler(profileCache, userRepo, sourceRepo, itemRepo, draftRepo, predictor, gemini)
	runner := pipeline.NewRunner(profileCache, userRepo, sourceRepo, itemRepo, fetcher, relevance, scheduler)
	scheduler.SetRunner(runner)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(userRepo, itemRepo, draftRepo, profileCache, runner, engine, predictor, optimizer)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
