package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_market/internal/app"
	"github.com/Freeeeeet/tutor_market/internal/config"
	"github.com/Freeeeeet/tutor_market/internal/controller"
	"github.com/Freeeeeet/tutor_market/internal/notify"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	relationRepo := repository.NewRelationRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	// Уведомления: телеграм если задан токен, иначе только лог
	var notifier notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramToken, userRepo, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// Сервисы
	userService := service.NewUserService(userRepo, logger)
	sessionService := service.NewSessionService(sessionRepo, relationRepo, notifier, logger)
	bookingService := service.NewBookingService(sessionRepo, bookingRepo, notifier, logger)
	socialService := service.NewSocialService(userRepo, relationRepo, reviewRepo, bookingRepo, logger)

	srv := controller.NewServer(
		userService,
		sessionService,
		bookingService,
		socialService,
		[]byte(cfg.SessionKey),
		logger,
	)

	scheduler := app.NewScheduler(sessionService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := app.NewServer(cfg.HTTPAddr, srv.Handler(), logger)

	go func() {
		<-ctx.Done()
		if err := server.Stop(context.Background()); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting tutor market",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr))

	if err := server.Start(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
