package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/consumer"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/logger"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/metrics"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue/sqs"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/storage"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/subscription"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting consumer service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("store_driver", cfg.Store.Driver))

	if !cfg.SQS.Enabled() {
		log.Fatal("SQS_QUEUE_URL is required for the consumer service")
	}
	if cfg.Store.Driver == config.StoreMemory {
		log.Warn("Consumer aggregates into a private in-memory store; the API will not see them")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenMetricsStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open metrics store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close metrics store", zap.Error(err))
		}
	}()

	var opts []pipeline.Option
	if cfg.Pipeline.ArchiveEvents {
		archive, err := storage.OpenArchive(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to open event archive", zap.Error(err))
		}
		defer func() {
			if err := archive.Close(); err != nil {
				log.Error("Failed to close event archive", zap.Error(err))
			}
		}()
		opts = append(opts, pipeline.WithArchiver(archive))
	}

	// The worker has no subscribers of its own; the registry only satisfies the pipeline
	registry := subscription.NewRegistry(log.Named("subscriptions"),
		subscription.WithQueueCapacity(cfg.Subscriptions.QueueCapacity))

	p := pipeline.New(cfg, store, registry, log.Named("pipeline"), opts...)
	p.Start(ctx)

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log.Named("sqs"))
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	c := consumer.NewConsumer(cfg, sqsClient, p, log.Named("consumer"))

	// Health check and metrics endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/internal/metrics", metrics.Handler())

	healthServer := &http.Server{
		Addr:              ":" + cfg.Consumer.HealthCheckPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health check server starting", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	log.Info("Consumer starting")
	if err := c.Start(ctx); err != nil {
		log.Error("Consumer error", zap.Error(err))
	}

	log.Info("Shutting down consumer gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down health check server", zap.Error(err))
	}
	if err := p.Stop(shutdownCtx); err != nil {
		log.Error("Final flush failed", zap.Error(err))
	}
}
