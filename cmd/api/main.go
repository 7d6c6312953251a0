package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sialweb/bookline/internal/config"
	"github.com/sialweb/bookline/internal/dialog"
	"github.com/sialweb/bookline/internal/http/handlers"
	"github.com/sialweb/bookline/internal/http/router"
	"github.com/sialweb/bookline/internal/notify"
	"github.com/sialweb/bookline/internal/observability/metrics"
	"github.com/sialweb/bookline/internal/schedule"
	"github.com/sialweb/bookline/internal/session"
	"github.com/sialweb/bookline/internal/store"
	"github.com/sialweb/bookline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bookline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone", "error", err, "timezone", cfg.BusinessTimezone)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	conversationMetrics := metrics.NewConversationMetrics(registry)

	db := store.NewStore(pool, store.WithLocation(loc))
	calculator := schedule.NewCalculator(db, loc)

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		logger.Warn("sendgrid not configured, emails will only be logged")
	}
	notifier := notify.NewService(sender, logger, notify.Config{
		BusinessName:        cfg.BusinessName,
		Location:            loc,
		AppointmentDuration: cfg.AppointmentDuration,
	})

	engine := dialog.NewEngine(db, db, calculator, notifier, logger, conversationMetrics, dialog.Options{
		MatchThreshold:  cfg.MatchThreshold,
		PhoneDigits:     cfg.PhoneDigits,
		RestartKeywords: cfg.RestartKeywords,
		Location:        loc,
	})

	sessions := session.NewStore(redisClient, cfg.SessionTTL, nil)
	messageHandler := handlers.NewMessageHandler(engine, sessions, cfg.DefaultBusinessID, logger)

	r := router.New(&router.Config{
		Logger:               logger,
		Messages:             messageHandler,
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		MessageRatePerSecond: cfg.MessageRatePerSecond,
		MessageBurst:         cfg.MessageBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
