// Package storage selects and opens the configured metrics store and event archive.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository/clickhouse"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository/memory"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository/mongo"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository/postgres"
)

// OpenMetricsStore opens the store named by STORE_DRIVER
func OpenMetricsStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.MetricsStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Warn("Using in-memory metrics store; aggregates are lost on restart")
		return memory.NewStore(), nil
	case config.StorePostgres:
		store, err := postgres.Open(ctx, &cfg.Postgres, log.Named("postgres"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMongo:
		store, err := mongo.Open(ctx, &cfg.Mongo, log.Named("mongo"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// OpenArchive connects to ClickHouse and creates the archive table. It returns
// nil without error when no ClickHouse host is configured.
func OpenArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) (*clickhouse.Archive, error) {
	if !cfg.ClickHouse.Enabled() {
		return nil, nil
	}

	client, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log.Named("clickhouse"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}

	archive := clickhouse.NewArchive(client, log.Named("archive"))
	if err := archive.InitSchema(ctx); err != nil {
		_ = archive.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return archive, nil
}
