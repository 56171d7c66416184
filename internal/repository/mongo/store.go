package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository"
)

// Store implements MetricsStore on a MongoDB collection
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	locks  *repository.KeyLocker
	log    *zap.Logger
	now    func() time.Time
}

// Open connects to MongoDB and ensures the (tenant_id, entity_id, date) unique index
func Open(ctx context.Context, cfg *config.Mongo, log *zap.Logger) (*Store, error) {
	log.Info("Connecting to MongoDB",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSec)*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		log.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		log.Error("Failed to ping MongoDB", zap.Error(err))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		locks:  repository.NewKeyLocker(),
		log:    log,
		now:    time.Now,
	}

	if err := store.ensureIndexes(connectCtx); err != nil {
		return nil, err
	}

	log.Info("MongoDB connection established successfully")
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "date", Value: -1}},
		},
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create daily metrics indexes: %w", err)
	}
	return nil
}

// Upsert applies delta and recomputes derived fields in a single atomic document update
func (s *Store) Upsert(ctx context.Context, key domain.MetricKey, delta domain.Counters) (*domain.AggregatedMetricRecord, error) {
	unlock := s.locks.LockKey(key)
	defer unlock()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc dailyMetricDoc
	err := s.coll.FindOneAndUpdate(ctx, keyFilter(key), upsertPipeline(delta, s.now().UTC()), opts).Decode(&doc)
	if err != nil {
		return nil, repository.StoreError("upsert daily metrics", err)
	}

	return doc.toRecord(), nil
}

// Get returns the stored record for key
func (s *Store) Get(ctx context.Context, key domain.MetricKey) (*domain.AggregatedMetricRecord, error) {
	var doc dailyMetricDoc
	err := s.coll.FindOne(ctx, keyFilter(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, repository.StoreError("get daily metrics", err)
	}
	return doc.toRecord(), nil
}

// Ping checks if the MongoDB deployment is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the MongoDB client
func (s *Store) Close() error {
	s.log.Info("Closing MongoDB connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
