package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/logger"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue/sqs"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/simulator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	if !cfg.SQS.Enabled() {
		log.Fatal("SQS_QUEUE_URL is required for the simulator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log.Named("sqs"))
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	runner := simulator.NewRunner(cfg.Simulator, sqsClient, log.Named("simulator"))
	stats, err := runner.Run(ctx)
	if err != nil {
		log.Fatal("Simulation failed",
			zap.Int("published", stats.Published),
			zap.Error(err))
	}
}
