package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, int64(100000), cfg.Pricing.FreeDeliveryThreshold)
	assert.Equal(t, int64(15000), cfg.Pricing.FlatDeliveryFee)
	assert.Equal(t, 2*time.Hour, cfg.Jobs.ReservationLength)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
auth:
  access_ttl: 30m
pricing:
  free_delivery_threshold: 200000
  flat_delivery_fee: 20000
kafka:
  brokers: ["kafka:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DATABASE_URL", "postgres://test@db/test")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, int64(200000), cfg.Pricing.FreeDeliveryThreshold)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://test@db/test", cfg.Database.URL)
	assert.Equal(t, 2, cfg.Redis.DB)
	// untouched keys keep their defaults
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = ""
	cfg.Auth.AccessTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
	assert.Contains(t, err.Error(), "TTLs")
}
