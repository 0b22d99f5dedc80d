package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/morningbrief/internal/app"
	briefingApp "github.com/felixgeelhaar/morningbrief/internal/briefing/application"
	"github.com/felixgeelhaar/morningbrief/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/morningbrief/pkg/config"
	"github.com/felixgeelhaar/morningbrief/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv()

	logger.Info("starting morningbrief worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logCfg := observability.DefaultLogConfig()
		logCfg.Level = observability.LogLevelDebug
		logger = observability.NewLogger(logCfg)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if container.Cycle == nil {
		logger.Error("delivery is not configured, the worker needs OAuth credentials")
		os.Exit(1)
	}

	// Delivery requests arrive on the bus; an external cron publishes the
	// daily tick. The worker is idle without a broker.
	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is required for the delivery worker")
		os.Exit(1)
	}
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, eventbus.NewConsumerRegistry(logger))
	if err != nil {
		logger.Error("failed to connect consumer to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	consumer.RegisterConsumer(briefingApp.NewDeliverRequestedConsumer(container.Cycle, logger))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("event consumer stopped", "error", err)
		}
	}()

	// Retention cleanup
	cleanupTicker := time.NewTicker(6 * time.Hour)
	defer cleanupTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				cutoff := time.Now().AddDate(0, 0, -cfg.BriefRetentionDays).Format("2006-01-02")
				deleted, err := container.Briefs.DeleteOlderThan(ctx, container.UserID, cutoff)
				if err != nil {
					logger.Error("brief cleanup failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("brief cleanup completed",
						"deleted", deleted,
						"retention_days", cfg.BriefRetentionDays)
				}
			}
		}
	}()

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		})

		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pingDatabase(checkCtx, container); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": "not_ready",
					"error":  err.Error(),
				})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("morningbrief worker stopped")
}

func pingDatabase(ctx context.Context, container *app.Container) error {
	if container.Pool != nil {
		return container.Pool.Ping(ctx)
	}
	return container.DB.PingContext(ctx)
}
