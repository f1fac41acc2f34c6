package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"smsrelay/internal/api"
	"smsrelay/internal/auth"
	"smsrelay/internal/cache"
	"smsrelay/internal/config"
	"smsrelay/internal/fanout"
	"smsrelay/internal/metrics"
	"smsrelay/internal/recovery"
	"smsrelay/internal/repo"
	"smsrelay/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := repo.InitSchema(ctx, db); err != nil {
		cancel()
		slog.Error("failed to init schema", "error", err)
		os.Exit(1)
	}
	cancel()

	metrics.Init()

	jobRepo := repo.NewPostgresJobRepo(db)
	otpRepo := repo.NewPostgresOtpRepo(db)
	userRepo := repo.NewPostgresUserRepo(db)
	billRepo := repo.NewPostgresBillRepo(db)

	hub := fanout.NewHub()

	queue := service.NewQueueService(jobRepo).
		WithNotifiers(hub).
		WithPreviewMax(cfg.Fanout.PreviewMax)

	if cfg.Fanout.WebhookURL != "" {
		queue.WithNotifiers(fanout.NewWebhookNotifier(cfg.Fanout.WebhookURL))
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		queue.WithReceiptCache(cache.NewRedisCache(rdb, cfg.Redis.TTL))
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	otpSvc := service.NewOtpService(otpRepo, userRepo, queue)
	authSvc := service.NewAuthService(userRepo, tokens)

	monitor, err := recovery.New(cfg.Recovery.Interval, queue)
	if err != nil {
		slog.Error("failed to create recovery monitor", "error", err)
		os.Exit(1)
	}
	if cfg.Recovery.AutoStart {
		monitor.Start()
	}

	handler := api.NewHandler(queue, otpSvc, authSvc, billRepo, monitor, hub, tokens)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.Router(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("sms-relay listening", "addr", cfg.Server.Address, "redis", cfg.Redis.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	monitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("forced shutdown", "error", err)
	}

	slog.Info("server exited")
}
