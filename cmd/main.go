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

	"github.com/flowclash/battle-system/config"
	"github.com/flowclash/battle-system/db"
	"github.com/flowclash/battle-system/handlers"
	"github.com/flowclash/battle-system/live"
	"github.com/flowclash/battle-system/repositories"
	api "github.com/flowclash/battle-system/routes"
	"github.com/flowclash/battle-system/services"
	"github.com/flowclash/battle-system/storage"
)

// Периодическое обновление публичных витрин: таблицы лидеров и средние
// баллы пересчитываются даже между финализациями, чтобы подхватывать
// поздние оценки судей.
const aggregateRefreshInterval = 5 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
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
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	trackRepo := repositories.NewPostgresTrackRepository(dbConn)
	assignmentRepo := repositories.NewPostgresAssignmentRepository(dbConn)
	evaluationRepo := repositories.NewPostgresEvaluationRepository(dbConn)
	judgePoolRepo := repositories.NewPostgresJudgePoolRepository(dbConn)
	rubricRepo := repositories.NewPostgresRubricRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, matchRepo, leaderboardRepo)
	judgingService := services.NewJudgingService(
		matchRepo,
		assignmentRepo,
		evaluationRepo,
		judgePoolRepo,
		trackRepo,
		rubricRepo,
		tournamentRepo,
	)
	evaluationService := services.NewEvaluationService(matchRepo, evaluationRepo, rubricRepo)
	finalizeService := services.NewFinalizeService(
		dbConn,
		matchRepo,
		trackRepo,
		evaluationRepo,
		leaderboardRepo,
		wsHub,
		logger,
	)
	submissionService := services.NewSubmissionService(matchRepo, trackRepo, uploader)
	mediaService := services.NewMediaService(uploader)
	logger.Info("services initialized")

	// Фоновый пересчёт витрин
	go func() {
		ticker := time.NewTicker(aggregateRefreshInterval)
		defer ticker.Stop()
		logger.Info("aggregate refresh scheduler started", slog.Duration("interval", aggregateRefreshInterval))

		for range ticker.C {
			if err := finalizeService.RefreshPublicAggregates(context.Background()); err != nil {
				logger.Error("scheduled aggregate refresh failed", slog.Any("error", err))
			}
		}
	}()

	// HTTP-хендлеры и маршруты
	router := api.SetupRoutes(api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Judge:      handlers.NewJudgeHandler(judgingService, evaluationService),
		Admin:      handlers.NewAdminHandler(finalizeService, userService, judgingService),
		Artist:     handlers.NewArtistHandler(submissionService),
		Media:      handlers.NewMediaHandler(mediaService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub),
	}, []byte(cfg.JWTSecretKey))
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	}
}
