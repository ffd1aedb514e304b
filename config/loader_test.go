// Loader and validation tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 120*time.Second, cfg.Pipeline.InvokeTimeout)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

pipeline:
  invoke_timeout: 90s

classifier:
  endpoint: "http://classifier.local/v1/classify"
  timeout: 10s

registry:
  endpoint: "http://registry.local/agents"
  refresh_interval: 15s
  seeds:
    - id: "agent-sum"
      name: "Summarizer"
      endpoint: "http://agents.local/sum"
      capabilities: ["summarize"]

store:
  type: "redis"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o600))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.InvokeTimeout)
	assert.Equal(t, "http://classifier.local/v1/classify", cfg.Classifier.Endpoint)
	assert.Equal(t, 15*time.Second, cfg.Registry.RefreshInterval)
	assert.Equal(t, "redis", cfg.Store.Type)
	require.Len(t, cfg.Registry.Seeds, 1)
	assert.Equal(t, "agent-sum", cfg.Registry.Seeds[0].ID)
	assert.Equal(t, []string{"summarize"}, cfg.Registry.Seeds[0].Capabilities)

	// Untouched sections keep defaults.
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoader_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("AGENTRELAY_SERVER_HTTP_PORT", "7070")
	t.Setenv("AGENTRELAY_STORE_TYPE", "mongo")
	t.Setenv("AGENTRELAY_PIPELINE_INVOKE_TIMEOUT", "45s")
	t.Setenv("AGENTRELAY_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AGENTRELAY_TELEMETRY_ENABLED", "true")
	t.Setenv("AGENTRELAY_TELEMETRY_SAMPLE_RATE", "0.5")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, "mongo", cfg.Store.Type)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.InvokeTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
}

func TestLoader_EnvPrefixOverride(t *testing.T) {
	t.Setenv("CUSTOM_SERVER_HTTP_PORT", "6060")

	cfg, err := NewLoader().WithEnvPrefix("CUSTOM").Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.HTTPPort)
}

func TestLoader_ValidatorFailure(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return assert.AnError }).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

// --- Validate ---

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.HTTPPort = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Store.Type = "cassandra"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store type")

	cfg = DefaultConfig()
	cfg.Registry.RefreshInterval = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Pipeline.InvokeTimeout = 0
	require.Error(t, cfg.Validate())
}

// --- DSN ---

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "u", Password: "p", Name: "relay", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=relay sslmode=disable",
		pg.DSN(),
	)

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "relay"}
	assert.Equal(t, "u:p@tcp(db:3306)/relay?parseTime=true", my.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Name: "relay.db"}
	assert.Equal(t, "relay.db", lite.DSN())

	unknown := DatabaseConfig{Driver: "oracle"}
	assert.Equal(t, "", unknown.DSN())
}
