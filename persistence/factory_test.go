package persistence

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/config"
)

func TestNewStoreMemory(t *testing.T) {
	for _, typ := range []string{"", "memory"} {
		cfg := &config.Config{Store: config.StoreConfig{Type: typ}}
		store, err := NewStore(cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
		store.Close()
	}
}

func TestNewStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Store: config.StoreConfig{Type: "redis"},
		Redis: config.RedisConfig{Addr: mr.Addr()},
	}
	store, err := NewStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	store.Close()
}

func TestNewStoreUnknownType(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Type: "etcd"}}
	_, err := NewStore(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store type")
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := openDatabase(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	require.Error(t, err)
}
