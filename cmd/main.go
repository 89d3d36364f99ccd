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

	"github.com/StephenCStudy/BX-clan-Backend/config"
	"github.com/StephenCStudy/BX-clan-Backend/db"
	"github.com/StephenCStudy/BX-clan-Backend/handlers"
	"github.com/StephenCStudy/BX-clan-Backend/realtime"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
	api "github.com/StephenCStudy/BX-clan-Backend/routes"
	"github.com/StephenCStudy/BX-clan-Backend/services"
	"github.com/StephenCStudy/BX-clan-Backend/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

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
		}
	}()
	logger.Info("database connection established")

	// Хранилище логотипов опционально: без ключей R2 загрузка просто недоступна.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
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
	} else {
		logger.Warn("R2 storage is not configured, file uploads are disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	newsRepo := repositories.NewPostgresNewsRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	roomRepo := repositories.NewPostgresRoomRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.TokenTTL)
	newsService := services.NewNewsService(newsRepo, tournamentRepo, userRepo, wsHub)
	teamService := services.NewTeamService(teamRepo, tournamentRepo, userRepo, uploader, wsHub, logger)
	roomService := services.NewRoomService(
		roomRepo,
		matchRepo,
		tournamentRepo,
		userRepo,
		inviteRepo,
		notificationRepo,
		teamService,
		wsHub,
		logger,
	)
	registrationService := services.NewRegistrationService(
		registrationRepo,
		newsRepo,
		roomRepo,
		userRepo,
		notificationRepo,
		wsHub,
		logger,
	)
	tournamentService := services.NewTournamentService(tournamentRepo, matchRepo, teamRepo, wsHub, logger)
	notificationService := services.NewNotificationService(notificationRepo, wsHub)
	logger.Info("services initialized")

	// HTTP-обработчики
	h := api.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		News:         handlers.NewNewsHandler(newsService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Room:         handlers.NewRoomHandler(roomService),
		Team:         handlers.NewTeamHandler(teamService),
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Notification: handlers.NewNotificationHandler(notificationService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, logger),
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, h, authService, cfg.CORSOrigin)
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
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
