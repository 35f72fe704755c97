package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Booking    BookingConfig    `yaml:"booking"`
	Fares      FareConfig       `yaml:"fares"`
	Allocation AllocationConfig `yaml:"allocation"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	OffersCacheTTL    int `yaml:"offers_cache_ttl_seconds"`
	AllocationLockTTL int `yaml:"allocation_lock_ttl_seconds"`
	CodeRetries       int `yaml:"code_retries"`
}

// FareConfig names the passenger-category discount rates explicitly. The
// legacy system priced children at 50% in one booking path and 70% in
// another; the canonical rule here is child 50%, infant 0%, and both rates
// stay configurable so the choice is visible instead of buried in a form.
// Pointers distinguish an unset rate from an explicit zero, so free travel
// for a category remains configurable.
type FareConfig struct {
	ChildRatePercent  *int `yaml:"child_rate_percent"`
	InfantRatePercent *int `yaml:"infant_rate_percent"`
}

type AllocationConfig struct {
	DefaultCapacity int `yaml:"default_capacity"`
}

type WorkerConfig struct {
	HousekeepingSweepMinutes int `yaml:"housekeeping_sweep_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Fares.ChildRatePercent == nil {
		c.Fares.ChildRatePercent = intPtr(50)
	}
	if c.Fares.InfantRatePercent == nil {
		c.Fares.InfantRatePercent = intPtr(0)
	}
	if c.Allocation.DefaultCapacity == 0 {
		c.Allocation.DefaultCapacity = 60
	}
	if c.Booking.CodeRetries == 0 {
		c.Booking.CodeRetries = 5
	}
	if c.Booking.AllocationLockTTL == 0 {
		c.Booking.AllocationLockTTL = 30
	}
	if c.Worker.HousekeepingSweepMinutes == 0 {
		c.Worker.HousekeepingSweepMinutes = 15
	}
}

func intPtr(v int) *int { return &v }
