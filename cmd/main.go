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
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/config"
	"github.com/Dosada05/pong-tournament/db"
	"github.com/Dosada05/pong-tournament/handlers"
	"github.com/Dosada05/pong-tournament/publisher"
	"github.com/Dosada05/pong-tournament/repositories"
	api "github.com/Dosada05/pong-tournament/routes"
	"github.com/Dosada05/pong-tournament/services"
	"github.com/Dosada05/pong-tournament/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
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

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Поток событий матчей в Redis (опционально)
	var eventPublisher publisher.EventPublisher = publisher.Noop{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis is not reachable, events will be retried per publish", slog.Any("error", err))
		}
		eventPublisher = publisher.NewStreamPublisher(client, cfg.EventStreamPrefix)
		logger.Info("match event stream enabled", slog.String("prefix", cfg.EventStreamPrefix))
	}
	defer func() {
		if err := eventPublisher.Close(); err != nil {
			logger.Error("failed to close event publisher", slog.Any("error", err))
		}
	}()

	// Архив финальных состояний в Cloudflare R2 (опционально)
	var archive services.Archiver
	if cfg.R2 != nil {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archive = storage.NewSnapshotArchive(uploader)
		logger.Info("Cloudflare R2 snapshot archive initialized", slog.String("bucket", cfg.R2.BucketName))
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев и сервисов
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)

	tournamentService := services.NewTournamentService(
		tournamentRepo,
		eventRepo,
		eventPublisher,
		wsHub,
		archive,
		logger,
		services.TournamentServiceConfig{DefaultGameTime: cfg.DefaultGameTime},
	)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Game:       handlers.NewGameHandler(tournamentService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins),
	}, cfg.CORSAllowedOrigins)

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
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
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// Останавливаем таймеры матчей и ждем загрузку архивов
	tournamentService.Shutdown()
	logger.Info("application exited")
}
