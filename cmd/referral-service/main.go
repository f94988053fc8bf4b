package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brickfoundation/referral-service/internal/app/background"
	"github.com/brickfoundation/referral-service/internal/app/setup"
	"github.com/brickfoundation/referral-service/internal/config"
	"github.com/brickfoundation/referral-service/internal/delivery/http/handlers"
	"github.com/brickfoundation/referral-service/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}
	// Reading config
	cfg := config.MustLoad()

	logg, closer, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(logg)

	deps, err := setup.InitializeDependencies(cfg, logg)
	if err != nil {
		logg.Error("failed to init dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	ucs, err := setup.InitializeUseCases(deps)
	if err != nil {
		logg.Error("failed to init usecases", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks := background.NewBackgroundTasks(ucs.ReferralUsecase, ucs.LinkUsecase, ucs.PaymentUsecase, logg)
	go tasks.StartExpiry(ctx, cfg.Referral.ExpiryInterval)
	if cfg.Kafka.Enabled && cfg.Kafka.ConsumePayments {
		go func() {
			err := tasks.ConsumePayments(ctx, deps.Subscriber, cfg.Kafka.PaymentTopic, cfg.Kafka.ConsumerGroup)
			if err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("payment consumer stopped", "error", err)
			}
		}()
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Referrals:     ucs.ReferralUsecase,
		Payments:      ucs.PaymentUsecase,
		Links:         ucs.LinkUsecase,
		Rewards:       ucs.RewardUsecase,
		Stats:         ucs.StatsUsecase,
		Notifications: ucs.NotificationUsecase,
		Gatherer:      deps.Registry,
		Log:           logg,
		WebhookSecret: cfg.Webhook.Secret,
		RateLimit:     cfg.Webhook.RateLimit,
		Burst:         cfg.Webhook.Burst,
		AdminAPIKey:   cfg.Admin.APIKey,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		logg.Info("referral service started", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err)
	}
}
