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

	"github.com/sagepoint/listing-sync/app/api"
	"github.com/sagepoint/listing-sync/app/cfg"
	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/listing"
	"github.com/sagepoint/listing-sync/app/schema"
	"github.com/sagepoint/listing-sync/app/source"
	"github.com/sagepoint/listing-sync/app/sync"
	"github.com/sagepoint/listing-sync/app/tasks"
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
	slog.SetLogLoggerLevel(logLevel)

	slog.Info("Starting Listing Sync", "version", appCfg.Version)

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
	if dirty {
		slog.Error("Database schema is dirty, manual intervention required", "version", version)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "version", version)

	itemRepo := database.NewItemRepository(db)
	termRepo := database.NewTermRepository(db)
	stateRepo := database.NewStateRepository(db)

	schemas := schema.NewCache(appCfg.SchemasDir)
	if err := schemas.Run(); err != nil {
		slog.Error("Failed to load field group schemas", "dir", appCfg.SchemasDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Field group schemas loaded", "count", schemas.GetGroupCount(), "dir", appCfg.SchemasDir)

	overrides, err := listing.LoadRankingOverrides(appCfg.RankingOverrides)
	if err != nil {
		slog.Error("Failed to load ranking overrides", "path", appCfg.RankingOverrides, "error", err)
		os.Exit(1)
	}
	if len(overrides) > 0 {
		slog.Info("Ranking overrides loaded", "count", len(overrides))
	}

	tokens := source.NewTokenProvider(appCfg.TokenURL, appCfg.ClientID, appCfg.ClientSecret, appCfg.Scope, stateRepo)
	client := source.NewClient(source.Config{
		Endpoint:  appCfg.SourceURL,
		Method:    appCfg.SourceMethod,
		Query:     appCfg.SourceQuery,
		PageSize:  appCfg.PageSize,
		Timeout:   time.Duration(appCfg.SourceTimeout) * time.Second,
		UserAgent: appCfg.UserAgent,
	}, stateRepo, http.DefaultClient)

	importer := sync.NewImporter(sync.ImportConfig{
		SchemaGroup:      appCfg.SchemaGroup,
		UniqueIDField:    appCfg.UniqueIDField,
		LogoBaseURL:      appCfg.LogoBaseURL,
		RankingOverrides: overrides,
	}, tokens, client, schemas, itemRepo, termRepo, stateRepo)

	registry := tasks.NewRegistry(importer, client, tokens)

	scheduler := tasks.NewScheduler(registry, appCfg.CronSpec)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	handler := api.NewHandler(registry, itemRepo, termRepo, stateRepo, appCfg.TaskSecret, appCfg.Version)
	router := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if appCfg.TaskSecret == "" {
		slog.Warn("No task secret configured, task endpoint will reject all triggers")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
