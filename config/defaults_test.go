package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	// Each sub-config should be non-zero
	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, PipelineConfig{}, cfg.Pipeline)
	assert.NotEqual(t, ClassifierConfig{}, cfg.Classifier)
	assert.NotEqual(t, RegistryConfig{}, cfg.Registry)
	assert.NotEqual(t, StoreConfig{}, cfg.Store)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, DatabaseConfig{}, cfg.Database)
	assert.NotEqual(t, MongoConfig{}, cfg.Mongo)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultValues(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, float64(100), cfg.Server.RateLimitRPS)

	assert.Equal(t, 120*time.Second, cfg.Pipeline.InvokeTimeout)
	assert.Equal(t, 64, cfg.Pipeline.EventBufferSize)

	assert.Equal(t, 30*time.Second, cfg.Classifier.Timeout)
	assert.Empty(t, cfg.Classifier.Endpoint)

	assert.Equal(t, 30*time.Second, cfg.Registry.RefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.Registry.ProbeTimeout)
	assert.Equal(t, 8, cfg.Registry.ProbeConcurrency)

	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "agentrelay:", cfg.Store.KeyPrefix)
	assert.True(t, cfg.Store.CleanupEnabled)
	assert.Equal(t, 24*time.Hour, cfg.Store.Retention)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "handovers", cfg.Mongo.Collection)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "agentrelay", cfg.Telemetry.ServiceName)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}
