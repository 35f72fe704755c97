package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	content := `
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: airreserve
  password: secret
  name: airreserve
  ssl_mode: disable
redis:
  addr: "localhost:6379"
kafka:
  brokers:
    - "localhost:9092"
  booking_events_topic: booking-events
fares:
  child_rate_percent: 70
  infant_rate_percent: 20
allocation:
  default_capacity: 180
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "host=localhost port=5432 user=airreserve password=secret dbname=airreserve sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	require.NotNil(t, cfg.Fares.ChildRatePercent)
	require.NotNil(t, cfg.Fares.InfantRatePercent)
	assert.Equal(t, 70, *cfg.Fares.ChildRatePercent)
	assert.Equal(t, 20, *cfg.Fares.InfantRatePercent)
	assert.Equal(t, 180, cfg.Allocation.DefaultCapacity)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  address: \":8080\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Fares.ChildRatePercent)
	require.NotNil(t, cfg.Fares.InfantRatePercent)
	assert.Equal(t, 50, *cfg.Fares.ChildRatePercent)
	assert.Equal(t, 0, *cfg.Fares.InfantRatePercent)
	assert.Equal(t, 60, cfg.Allocation.DefaultCapacity)
	assert.Equal(t, 5, cfg.Booking.CodeRetries)
	assert.Equal(t, 30, cfg.Booking.AllocationLockTTL)
	assert.Equal(t, 15, cfg.Worker.HousekeepingSweepMinutes)
}

func TestLoadConfig_ExplicitZeroChildRate(t *testing.T) {
	content := "fares:\n  child_rate_percent: 0\n  infant_rate_percent: 0\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// An explicit zero means children travel free; it must not be treated
	// as unset and overridden by the default.
	require.NotNil(t, cfg.Fares.ChildRatePercent)
	assert.Equal(t, 0, *cfg.Fares.ChildRatePercent)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [not a mapping"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
