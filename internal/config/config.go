package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Service       Service       `envconfig:"SERVICE"`
	Pipeline      Pipeline      `envconfig:"PIPELINE"`
	Subscriptions Subscriptions `envconfig:"SUBSCRIPTIONS"`
	Store         Store         `envconfig:"STORE"`
	Postgres      Postgres      `envconfig:"POSTGRES"`
	Mongo         Mongo         `envconfig:"MONGO"`
	ClickHouse    ClickHouse    `envconfig:"CLICKHOUSE"`
	SQS           SQS           `envconfig:"SQS"`
	Consumer      Consumer      `envconfig:"CONSUMER"`
	Simulator     Simulator     `envconfig:"SIMULATOR"`
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"localhost:8080"`
}

// Pipeline holds the ingestion buffer and flush scheduler settings
type Pipeline struct {
	FlushThreshold int           `envconfig:"FLUSH_THRESHOLD" default:"100"`
	FlushInterval  time.Duration `envconfig:"FLUSH_INTERVAL" default:"5s"`
	MaxBufferSize  int           `envconfig:"MAX_BUFFER_SIZE" default:"10000"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	ArchiveEvents  bool          `envconfig:"ARCHIVE_EVENTS" default:"false"`
}

type Subscriptions struct {
	QueueCapacity    int           `envconfig:"QUEUE_CAPACITY" default:"100"`
	InactivityWindow time.Duration `envconfig:"INACTIVITY_WINDOW" default:"5m"`
	ReapInterval     time.Duration `envconfig:"REAP_INTERVAL" default:"60s"`
}

type Store struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
}

type Postgres struct {
	DSN                string `envconfig:"DSN"`
	MaxOpenConns       int    `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns       int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeSec int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
	AutoMigrate        bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

type Mongo struct {
	URI               string `envconfig:"URI"`
	Database          string `envconfig:"DATABASE" default:"analytics"`
	Collection        string `envconfig:"COLLECTION" default:"daily_metrics"`
	ConnectTimeoutSec int    `envconfig:"CONNECT_TIMEOUT_SEC" default:"10"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST"`
	Port            string `envconfig:"PORT" default:"9000"`
	Database        string `envconfig:"DB" default:"default"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
}

// Enabled reports whether a ClickHouse archive is configured
func (c ClickHouse) Enabled() bool {
	return c.Host != ""
}

type SQS struct {
	Endpoint string `envconfig:"ENDPOINT"`
	QueueURL string `envconfig:"QUEUE_URL"`
	Region   string `envconfig:"REGION" default:"eu-central-1"`
}

// Enabled reports whether an SQS queue is configured
func (s SQS) Enabled() bool {
	return s.QueueURL != ""
}

type Consumer struct {
	BatchSizeMax    int    `envconfig:"BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec int    `envconfig:"BATCH_TIMEOUT_SEC" default:"2"`
	MaxMessages     int32  `envconfig:"MAX_MESSAGES" default:"10"`
	WaitTimeSeconds int32  `envconfig:"WAIT_TIME_SECONDS" default:"20"`
	HealthCheckPort string `envconfig:"HEALTH_CHECK_PORT" default:"8081"`
}

// Simulator configures the synthetic traffic generator
type Simulator struct {
	Tenants       int           `envconfig:"TENANTS" default:"2"`
	Entities      int           `envconfig:"ENTITIES" default:"5"`
	EventsPerTick int           `envconfig:"EVENTS_PER_TICK" default:"50"`
	TickInterval  time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	Duration      time.Duration `envconfig:"DURATION" default:"1m"`
	Seed          int64         `envconfig:"SEED" default:"1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for store driver %q", c.Store.Driver)
		}
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s (supported: memory, postgres, mongo)", c.Store.Driver)
	}

	if c.Pipeline.FlushThreshold <= 0 {
		return fmt.Errorf("PIPELINE_FLUSH_THRESHOLD must be positive, got %d", c.Pipeline.FlushThreshold)
	}
	if c.Pipeline.MaxBufferSize < c.Pipeline.FlushThreshold {
		return fmt.Errorf("PIPELINE_MAX_BUFFER_SIZE (%d) must not be smaller than PIPELINE_FLUSH_THRESHOLD (%d)",
			c.Pipeline.MaxBufferSize, c.Pipeline.FlushThreshold)
	}
	if c.Pipeline.FlushInterval <= 0 || c.Subscriptions.ReapInterval <= 0 {
		return fmt.Errorf("flush and reap intervals must be positive")
	}
	if c.Subscriptions.QueueCapacity <= 0 {
		return fmt.Errorf("SUBSCRIPTIONS_QUEUE_CAPACITY must be positive, got %d", c.Subscriptions.QueueCapacity)
	}
	if c.Pipeline.ArchiveEvents && !c.ClickHouse.Enabled() {
		return fmt.Errorf("PIPELINE_ARCHIVE_EVENTS requires CLICKHOUSE_HOST")
	}

	return nil
}
