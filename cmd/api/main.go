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

	"github.com/ebfarnell/podcastflow-pro-sub012/docs"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/consumer"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/handler"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/logger"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/pipeline"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue/sqs"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/service"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/storage"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/subscription"
)

const shutdownTimeout = 30 * time.Second

// @title Campaign Analytics Pipeline API
// @version 1.0
// @description API for ingesting campaign events, reading daily aggregates and polling live updates
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("store_driver", cfg.Store.Driver))

	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize metrics store
	store, err := storage.OpenMetricsStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open metrics store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close metrics store", zap.Error(err))
		}
	}()

	// Initialize optional raw event archive
	archive, err := storage.OpenArchive(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open event archive", zap.Error(err))
	}

	registry := subscription.NewRegistry(log.Named("subscriptions"),
		subscription.WithQueueCapacity(cfg.Subscriptions.QueueCapacity))

	var opts []pipeline.Option
	var counter service.EventCounter
	if archive != nil {
		defer func() {
			if err := archive.Close(); err != nil {
				log.Error("Failed to close event archive", zap.Error(err))
			}
		}()
		counter = archive
		if cfg.Pipeline.ArchiveEvents {
			opts = append(opts, pipeline.WithArchiver(archive))
		}
	}

	p := pipeline.New(cfg, store, registry, log.Named("pipeline"), opts...)
	p.Start(ctx)

	// Initialize analytics service and handler
	analyticsService := service.NewAnalyticsService(p, registry, store, counter, log.Named("service"))
	h := handler.NewHandler(analyticsService, log.Named("handler"))

	// Optional SQS intake feeding the same pipeline
	consumerDone := make(chan struct{})
	if cfg.SQS.Enabled() {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log.Named("sqs"))
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		c := consumer.NewConsumer(cfg, sqsClient, p, log.Named("consumer"))
		go func() {
			defer close(consumerDone)
			if err := c.Start(ctx); err != nil {
				log.Error("Consumer error", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down API service gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
	<-consumerDone

	if err := p.Stop(shutdownCtx); err != nil {
		log.Error("Final flush failed", zap.Error(err))
	}

	log.Info("API service stopped")
}
