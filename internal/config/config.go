// Package config provides application configuration management.
// It loads configuration from environment variables with support for .env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Timeouts   TimeoutConfig
	Logging    LoggingConfig
	App        AppConfig
	Amadeus    AmadeusConfig
	Duffel     DuffelConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Commission CommissionConfig
	Markup     MarkupConfig
	Routing    RoutingConfig
	Cache      CacheConfig
	Combiner   CombinerConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// TimeoutConfig holds timeout settings for offer search operations.
type TimeoutConfig struct {
	GlobalSearch time.Duration `env:"TIMEOUT_GLOBAL_SEARCH" envDefault:"5s"`
	PerProvider  time.Duration `env:"TIMEOUT_PER_PROVIDER" envDefault:"2s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	// MarketTimeZone is the zone in which "days until departure" is counted
	MarketTimeZone string `env:"MARKET_TIME_ZONE" envDefault:"America/New_York"`

	MaxSubSearches int `env:"MAX_SUB_SEARCHES" envDefault:"36"`
	FarFutureDays  int `env:"FAR_FUTURE_DAYS" envDefault:"330"`

	MinConnection time.Duration `env:"MIN_CONNECTION_TIME" envDefault:"30m"`
}

// AmadeusConfig holds the Amadeus Self-Service API credentials.
// A MockPath serves a recorded response file instead of calling the API.
type AmadeusConfig struct {
	Enabled      bool          `env:"AMADEUS_ENABLED" envDefault:"true"`
	BaseURL      string        `env:"AMADEUS_BASE_URL" envDefault:"https://test.api.amadeus.com"`
	ClientID     string        `env:"AMADEUS_CLIENT_ID"`
	ClientSecret string        `env:"AMADEUS_CLIENT_SECRET"`
	Timeout      time.Duration `env:"AMADEUS_HTTP_TIMEOUT" envDefault:"10s"`
	MockPath     string        `env:"AMADEUS_MOCK_PATH"`
}

// Configured reports whether the adapter has credentials or a recorded response.
func (c AmadeusConfig) Configured() bool {
	return c.MockPath != "" || (c.ClientID != "" && c.ClientSecret != "")
}

// DuffelConfig holds the Duffel API credentials.
type DuffelConfig struct {
	Enabled     bool          `env:"DUFFEL_ENABLED" envDefault:"true"`
	BaseURL     string        `env:"DUFFEL_BASE_URL" envDefault:"https://api.duffel.com"`
	AccessToken string        `env:"DUFFEL_ACCESS_TOKEN"`
	Timeout     time.Duration `env:"DUFFEL_HTTP_TIMEOUT" envDefault:"15s"`
	MockPath    string        `env:"DUFFEL_MOCK_PATH"`
}

// Configured reports whether the adapter has a token or a recorded response.
func (c DuffelConfig) Configured() bool {
	return c.MockPath != "" || c.AccessToken != ""
}

// RedisConfig holds the shared cache connection. An empty URL keeps every cache in process.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`
}

// PostgresConfig holds the commission database connection.
type PostgresConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// CommissionConfig locates the commission table when no database is configured.
type CommissionConfig struct {
	File           string  `env:"COMMISSION_FILE" envDefault:"configs/commission.yaml"`
	DefaultPercent float64 `env:"COMMISSION_DEFAULT_PERCENT" envDefault:"0"`
}

// MarkupConfig holds the customer markup policy.
type MarkupConfig struct {
	MinFee float64 `env:"MARKUP_MIN_FEE" envDefault:"22"`
	Rate   float64 `env:"MARKUP_RATE" envDefault:"0.07"`
	Cap    float64 `env:"MARKUP_CAP" envDefault:"250"`
}

// RoutingConfig holds settlement routing settings.
type RoutingConfig struct {
	BatchSize         int           `env:"ROUTING_BATCH_SIZE" envDefault:"10"`
	Concurrency       int           `env:"ROUTING_CONCURRENCY" envDefault:"3"`
	OfferTimeout      time.Duration `env:"ROUTING_OFFER_TIMEOUT" envDefault:"2s"`
	HighFareThreshold float64       `env:"ROUTING_HIGH_FARE_THRESHOLD" envDefault:"500"`
	GroupSize         int           `env:"ROUTING_GROUP_SIZE" envDefault:"10"`
}

// CacheConfig holds search result lifetimes.
type CacheConfig struct {
	BaseTTL   time.Duration `env:"CACHE_BASE_TTL" envDefault:"10m"`
	MinTTL    time.Duration `env:"CACHE_MIN_TTL" envDefault:"1m"`
	MaxTTL    time.Duration `env:"CACHE_MAX_TTL" envDefault:"2h"`
	OneWayTTL time.Duration `env:"CACHE_ONE_WAY_TTL" envDefault:"30m"`
}

// CombinerConfig holds separate-ticket search settings.
type CombinerConfig struct {
	AutoEnabled       bool     `env:"COMBINER_AUTO_ENABLED" envDefault:"true"`
	Cabins            []string `env:"COMBINER_CABINS" envDefault:"economy,premium_economy" envSeparator:","`
	MinSavingsAmount  float64  `env:"COMBINER_MIN_SAVINGS_AMOUNT" envDefault:"20"`
	MinSavingsPercent float64  `env:"COMBINER_MIN_SAVINGS_PERCENT" envDefault:"5"`
	CandidatesPerLeg  int      `env:"COMBINER_CANDIDATES_PER_LEG" envDefault:"5"`
	MaxCombinations   int      `env:"COMBINER_MAX_COMBINATIONS" envDefault:"15"`
}

// RateLimitConfig holds the per-provider token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"PROVIDER_RATE_LIMIT_RPS" envDefault:"10"`
	Burst             int     `env:"PROVIDER_RATE_LIMIT_BURST" envDefault:"20"`
	RetryAttempts     int     `env:"PROVIDER_RETRY_ATTEMPTS" envDefault:"2"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter    string  `env:"TRACING_EXPORTER" envDefault:"stdout"`
	SampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1"`
	ServiceName string  `env:"TRACING_SERVICE_NAME" envDefault:"offer-aggregation-engine"`
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first (optional - won't fail if missing).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics on error.
// Use this in main() where configuration is required to start.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// validate checks configuration values for correctness.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout},
		{"TIMEOUT_GLOBAL_SEARCH", cfg.Timeouts.GlobalSearch},
		{"TIMEOUT_PER_PROVIDER", cfg.Timeouts.PerProvider},
		{"MIN_CONNECTION_TIME", cfg.App.MinConnection},
		{"ROUTING_OFFER_TIMEOUT", cfg.Routing.OfferTimeout},
		{"CACHE_BASE_TTL", cfg.Cache.BaseTTL},
		{"CACHE_MIN_TTL", cfg.Cache.MinTTL},
		{"CACHE_MAX_TTL", cfg.Cache.MaxTTL},
		{"CACHE_ONE_WAY_TTL", cfg.Cache.OneWayTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	// Validate per-provider timeout is less than global timeout
	if cfg.Timeouts.PerProvider >= cfg.Timeouts.GlobalSearch {
		return fmt.Errorf("TIMEOUT_PER_PROVIDER (%s) should be less than TIMEOUT_GLOBAL_SEARCH (%s)",
			cfg.Timeouts.PerProvider, cfg.Timeouts.GlobalSearch)
	}

	if cfg.Cache.MinTTL > cfg.Cache.BaseTTL || cfg.Cache.BaseTTL > cfg.Cache.MaxTTL {
		return fmt.Errorf("cache TTLs must satisfy CACHE_MIN_TTL <= CACHE_BASE_TTL <= CACHE_MAX_TTL")
	}

	if cfg.App.MaxSubSearches < 1 {
		return fmt.Errorf("MAX_SUB_SEARCHES must be at least 1, got %d", cfg.App.MaxSubSearches)
	}
	if cfg.App.FarFutureDays < 1 {
		return fmt.Errorf("FAR_FUTURE_DAYS must be at least 1, got %d", cfg.App.FarFutureDays)
	}
	if _, err := time.LoadLocation(cfg.App.MarketTimeZone); err != nil {
		return fmt.Errorf("MARKET_TIME_ZONE %q is not a known time zone", cfg.App.MarketTimeZone)
	}

	if cfg.Markup.MinFee < 0 || cfg.Markup.Rate < 0 || cfg.Markup.Cap < 0 {
		return fmt.Errorf("markup settings must not be negative")
	}
	if cfg.Markup.Cap > 0 && cfg.Markup.Cap < cfg.Markup.MinFee {
		return fmt.Errorf("MARKUP_CAP (%.2f) must not be below MARKUP_MIN_FEE (%.2f)", cfg.Markup.Cap, cfg.Markup.MinFee)
	}

	if cfg.Routing.BatchSize < 1 || cfg.Routing.Concurrency < 1 {
		return fmt.Errorf("ROUTING_BATCH_SIZE and ROUTING_CONCURRENCY must be at least 1")
	}

	if cfg.Combiner.MinSavingsAmount < 0 || cfg.Combiner.MinSavingsPercent < 0 {
		return fmt.Errorf("combiner savings thresholds must not be negative")
	}
	if cfg.Combiner.CandidatesPerLeg < 1 || cfg.Combiner.MaxCombinations < 1 {
		return fmt.Errorf("COMBINER_CANDIDATES_PER_LEG and COMBINER_MAX_COMBINATIONS must be at least 1")
	}
	validCabins := map[string]bool{"economy": true, "premium_economy": true, "business": true, "first": true}
	for _, c := range cfg.Combiner.Cabins {
		if !validCabins[strings.TrimSpace(c)] {
			return fmt.Errorf("COMBINER_CABINS contains unknown cabin %q", c)
		}
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("provider rate limit must allow at least one request")
	}
	if cfg.RateLimit.RetryAttempts < 1 {
		return fmt.Errorf("PROVIDER_RETRY_ATTEMPTS must be at least 1, got %d", cfg.RateLimit.RetryAttempts)
	}

	// Outside production a provider without credentials is skipped at startup
	if cfg.App.Env == "production" {
		if cfg.Amadeus.Enabled && !cfg.Amadeus.Configured() {
			return fmt.Errorf("AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET are required unless AMADEUS_MOCK_PATH is set")
		}
		if cfg.Duffel.Enabled && !cfg.Duffel.Configured() {
			return fmt.Errorf("DUFFEL_ACCESS_TOKEN is required unless DUFFEL_MOCK_PATH is set")
		}
	}

	validExporters := map[string]bool{"stdout": true, "none": true}
	if !validExporters[cfg.Tracing.Exporter] {
		return fmt.Errorf("TRACING_EXPORTER must be one of: stdout, none; got %q", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1, got %v", cfg.Tracing.SampleRatio)
	}

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}

	// Validate log format
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console; got %q", cfg.Logging.Format)
	}

	// Validate app environment
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[cfg.App.Env] {
		return fmt.Errorf("APP_ENV must be one of: development, staging, production; got %q", cfg.App.Env)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
