package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/angling-league/config"
	"github.com/Dosada05/angling-league/db"
	"github.com/Dosada05/angling-league/handlers"
	"github.com/Dosada05/angling-league/league"
	"github.com/Dosada05/angling-league/live"
	"github.com/Dosada05/angling-league/repositories"
	"github.com/Dosada05/angling-league/roster"
	api "github.com/Dosada05/angling-league/routes"
	"github.com/Dosada05/angling-league/services"
	"github.com/Dosada05/angling-league/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("db_driver", cfg.DatabaseDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to migrate database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Standings publishing is optional.
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.IsZero() {
		logger.Warn("Cloudflare R2 not configured, standings publishing disabled")
	} else {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	var names services.NameResolver
	if cfg.RosterServiceURL != "" {
		rosterClient, err := roster.NewClient(cfg.RosterServiceURL, cfg.RosterCacheTTL)
		if err != nil {
			logger.Error("failed to initialize roster client", slog.Any("error", err))
			os.Exit(1)
		}
		names = rosterClient
		logger.Info("roster client initialized", slog.Duration("cache_ttl", cfg.RosterCacheTTL))
	}

	hub := live.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("live hub started")

	matchRepo := repositories.NewMatchRepository(dbConn)
	resultRepo := repositories.NewResultRepository(dbConn)
	seriesRepo := repositories.NewSeriesRepository(dbConn)

	clock := league.SystemClock
	syncer := services.NewStatusSyncer(matchRepo, clock, hub, logger)
	leaderboards := services.NewLeaderboardService(matchRepo, resultRepo, syncer, names, logger)
	standings := services.NewStandingsService(seriesRepo, matchRepo, resultRepo, uploader, names, clock, logger)
	publisher := services.NewLivePublisher(leaderboards, standings, hub, logger)
	matchService := services.NewMatchService(matchRepo, seriesRepo, syncer, publisher)
	resultService := services.NewResultService(matchRepo, resultRepo, syncer, leaderboards, publisher, logger)
	seriesService := services.NewSeriesService(seriesRepo, publisher)
	logger.Info("services initialized")

	go runStatusSweep(ctx, syncer, cfg.StatusSyncInterval, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{JWTSecret: []byte(cfg.JWTSecretKey), AllowedOrigins: cfg.AllowedOrigins},
		handlers.NewMatchHandler(matchService, resultService, leaderboards),
		handlers.NewSeriesHandler(seriesService, standings),
		handlers.NewWebSocketHandler(hub, leaderboards, standings, cfg.AllowedOrigins, logger),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}

	publisher.Wait()
	syncer.Wait()
	logger.Info("application exited")
}

// runStatusSweep persists derived match statuses at startup and then every
// interval, so matches nobody is viewing still move through their lifecycle.
func runStatusSweep(ctx context.Context, syncer *services.StatusSyncer, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("match status sweep started", slog.Duration("interval", interval))

	sweep := func() {
		updated, err := syncer.Sync(ctx)
		if err != nil {
			logger.Error("match status sweep failed", slog.Any("error", err))
		}
		if updated > 0 {
			logger.Info("match status sweep updated matches", slog.Int("updated", updated))
		}
	}

	sweep()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			return
		}
	}
}
