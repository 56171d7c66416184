package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/repository/memory"
)

func TestOpenMetricsStore_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Driver: config.StoreMemory}}

	store, err := OpenMetricsStore(context.Background(), cfg, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenMetricsStore_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Driver: "cassandra"}}

	store, err := OpenMetricsStore(context.Background(), cfg, zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestOpenArchive_Disabled(t *testing.T) {
	archive, err := OpenArchive(context.Background(), &config.Config{}, zap.NewNop())

	assert.NoError(t, err)
	assert.Nil(t, archive)
}
