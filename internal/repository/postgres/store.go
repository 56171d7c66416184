package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

// Store implements MetricsStore on Postgres through GORM
type Store struct {
	db    *gorm.DB
	locks *repository.KeyLocker
	log   *zap.Logger
	now   func() time.Time
}

// Open connects to Postgres with the given configuration
func Open(ctx context.Context, cfg *config.Postgres, log *zap.Logger) (*Store, error) {
	log.Info("Connecting to Postgres",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Bool("auto_migrate", cfg.AutoMigrate))

	db, err := gorm.Open(pgdriver.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get Postgres connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Failed to ping Postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	store := NewStore(db, log)
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	log.Info("Postgres connection established successfully")
	return store, nil
}

// NewStore wraps an existing GORM handle
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:    db,
		locks: repository.NewKeyLocker(),
		log:   log,
		now:   time.Now,
	}
}

// Migrate creates or updates the daily metrics table
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&DailyMetric{}); err != nil {
		return fmt.Errorf("failed to migrate daily metrics table: %w", err)
	}
	s.log.Info("Postgres schema migrated successfully")
	return nil
}

// Upsert increments the counters of the (tenant, entity, day) row and rewrites the derived
// columns from the incremented totals inside one transaction. The row lock taken by
// the conflict update is held until commit, so concurrent writers on other
// processes serialize on the same key as well.
func (s *Store) Upsert(ctx context.Context, key domain.MetricKey, delta domain.Counters) (*domain.AggregatedMetricRecord, error) {
	unlock := s.locks.LockKey(key)
	defer unlock()

	now := s.now().UTC()
	var result *domain.AggregatedMetricRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := newDailyMetric(domain.NewRecord(key, delta, now))

		if err := tx.Clauses(clause.OnConflict{
			Columns:   keyColumns,
			DoUpdates: incrementAssignments(now),
		}).Create(row).Error; err != nil {
			return fmt.Errorf("failed to upsert counters: %w", err)
		}

		var current DailyMetric
		if err := tx.Where(keyCondition(key)).Take(&current).Error; err != nil {
			return fmt.Errorf("failed to read back counters: %w", err)
		}

		derived := domain.Derive(current.counters())
		if err := tx.Model(&DailyMetric{}).
			Where("id = ?", current.ID).
			Updates(derivedColumns(derived, now)).Error; err != nil {
			return fmt.Errorf("failed to update derived metrics: %w", err)
		}

		current.setDerived(derived)
		current.UpdatedAt = now
		result = current.toRecord()
		return nil
	})
	if err != nil {
		return nil, repository.StoreError("upsert daily metrics", err)
	}

	return result, nil
}

// Get returns the stored record for key
func (s *Store) Get(ctx context.Context, key domain.MetricKey) (*domain.AggregatedMetricRecord, error) {
	var row DailyMetric
	err := s.db.WithContext(ctx).Where(keyCondition(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, repository.StoreError("get daily metrics", err)
	}
	return row.toRecord(), nil
}

// Ping checks if the Postgres connection is alive
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the Postgres connection pool
func (s *Store) Close() error {
	s.log.Info("Closing Postgres connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// incrementAssignments adds the proposed counters to the existing row
func incrementAssignments(now time.Time) clause.Set {
	values := make(map[string]any, len(counterColumns)+1)
	for _, col := range counterColumns {
		values[col] = gorm.Expr(fmt.Sprintf("%s.%s + EXCLUDED.%s", DailyMetric{}.TableName(), col, col))
	}
	values["updated_at"] = now
	return clause.Assignments(values)
}

// keyCondition selects the single row of key
func keyCondition(key domain.MetricKey) map[string]any {
	return map[string]any{
		"tenant_id": key.TenantID,
		"entity_id": key.EntityID,
		"date":      key.Day,
	}
}
