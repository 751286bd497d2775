package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration.
type Config struct {
	DatabaseURL   string           `yaml:"database_url"`
	HTTPAddr      string           `yaml:"http_addr"`
	JWTSecret     string           `yaml:"jwt_secret"`
	IngestSecret  string           `yaml:"ingest_secret"`
	IngestMaxSkew time.Duration    `yaml:"ingest_max_skew"`
	Pricing       PricingConfig    `yaml:"pricing"`
	Feed          FeedConfig       `yaml:"feed"`
	Allocation    AllocationConfig `yaml:"allocation"`
	Kafka         KafkaConfig      `yaml:"kafka"`
}

// PricingConfig holds the fallback electricity price.
type PricingConfig struct {
	DefaultPricePer100Wh int64 `yaml:"default_price_per_100wh"`
}

// FeedConfig configures calendar feed imports.
type FeedConfig struct {
	DefaultTimezone string        `yaml:"default_timezone"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

// AllocationConfig configures the allocation batch.
type AllocationConfig struct {
	BatchSize int           `yaml:"batch_size"`
	DailyAt   string        `yaml:"daily_at"`
	Interval  time.Duration `yaml:"interval"`
}

// KafkaConfig configures the allocation event publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Defaults returns the configuration before any file or environment is applied.
func Defaults() Config {
	return Config{
		HTTPAddr:      ":8080",
		IngestMaxSkew: 300 * time.Second,
		Pricing:       PricingConfig{DefaultPricePer100Wh: 0},
		Feed:          FeedConfig{DefaultTimezone: "UTC", FetchTimeout: 10 * time.Second},
		Allocation:    AllocationConfig{BatchSize: 100, DailyAt: "02:00"},
		Kafka:         KafkaConfig{Topic: "hostledger.allocations"},
	}
}

// Load reads .env, then the YAML file named by HOSTLEDGER_CONFIG, then
// environment overrides, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := Defaults()
	if path := os.Getenv("HOSTLEDGER_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("INGEST_HMAC_SECRET"); v != "" {
		c.IngestSecret = v
	}
	if v := os.Getenv("INGEST_MAX_SKEW_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: INGEST_MAX_SKEW_SECONDS: %w", err)
		}
		c.IngestMaxSkew = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("PRICE_PER_100WH_CENTS"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: PRICE_PER_100WH_CENTS: %w", err)
		}
		c.Pricing.DefaultPricePer100Wh = price
	}
	if v := os.Getenv("FEED_TIMEZONE"); v != "" {
		c.Feed.DefaultTimezone = v
	}
	if v := os.Getenv("FEED_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: FEED_FETCH_TIMEOUT: %w", err)
		}
		c.Feed.FetchTimeout = d
	}
	if v := os.Getenv("ALLOCATION_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ALLOCATION_BATCH_SIZE: %w", err)
		}
		c.Allocation.BatchSize = n
	}
	if v := os.Getenv("ALLOCATION_DAILY_AT"); v != "" {
		c.Allocation.DailyAt = v
	}
	if v := os.Getenv("ALLOCATION_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: ALLOCATION_INTERVAL: %w", err)
		}
		c.Allocation.Interval = d
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	return nil
}

// Validate checks required keys and value ranges.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	if c.Pricing.DefaultPricePer100Wh < 0 {
		return errors.New("config: negative default price")
	}
	if c.Allocation.BatchSize <= 0 {
		return errors.New("config: allocation batch size must be positive")
	}
	if c.Allocation.Interval <= 0 {
		if _, err := time.Parse("15:04", c.Allocation.DailyAt); err != nil {
			return fmt.Errorf("config: invalid allocation daily_at %q", c.Allocation.DailyAt)
		}
	}
	if _, err := time.LoadLocation(c.Feed.DefaultTimezone); err != nil {
		return fmt.Errorf("config: invalid feed timezone %q", c.Feed.DefaultTimezone)
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("config: kafka topic required when brokers are set")
	}
	return nil
}

// FeedLocation returns the default zone for naive feed times.
func (c Config) FeedLocation() *time.Location {
	loc, err := time.LoadLocation(c.Feed.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// KafkaEnabled reports whether allocation events go to Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
