package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Fetch     FetchConfig
	Pricing   PricingConfig
	Scheduler SchedulerConfig
	API       APIConfig
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host string
	Port string
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	Driver string
	URL    string
}

// FetchConfig bounds every outbound page fetch
type FetchConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// PricingConfig controls extraction and currency tagging
type PricingConfig struct {
	DefaultCurrency  string
	DollarCurrency   string
	UsePriceSelector bool
}

// SchedulerConfig controls the periodic sweep
type SchedulerConfig struct {
	Enabled    bool
	Schedule   string
	Workers    int
	Interval   time.Duration
	RunOnStart bool
}

// APIConfig holds settings for the HTTP surface
type APIConfig struct {
	AllowedOrigins     []string
	RateLimitPerSecond float64
	APIKeys            []string
	MaxBodyBytes       int64
}

// Load reads .env (when present), then the environment, then applies
// defaults and validates the result
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.SetConfigName("pricetrack")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("HOST"),
			Port: v.GetString("PORT"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			URL:    v.GetString("DATABASE_URL"),
		},
		Fetch: FetchConfig{
			Timeout:      v.GetDuration("FETCH_TIMEOUT"),
			UserAgent:    v.GetString("FETCH_USER_AGENT"),
			MaxBodyBytes: v.GetInt64("FETCH_MAX_BODY_BYTES"),
		},
		Pricing: PricingConfig{
			DefaultCurrency:  strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
			DollarCurrency:   strings.ToUpper(strings.TrimSpace(v.GetString("DOLLAR_CURRENCY"))),
			UsePriceSelector: v.GetBool("USE_PRICE_SELECTOR"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("SCHEDULER_ENABLED"),
			Schedule:   v.GetString("CHECK_SCHEDULE"),
			Workers:    v.GetInt("SWEEP_WORKERS"),
			Interval:   v.GetDuration("SWEEP_INTERVAL"),
			RunOnStart: v.GetBool("SCHEDULER_RUN_ON_START"),
		},
		API: APIConfig{
			AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
			RateLimitPerSecond: v.GetFloat64("RATE_LIMIT_PER_SECOND"),
			APIKeys:            splitList(v.GetString("API_KEYS")),
			MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("FETCH_TIMEOUT", "12s")
	v.SetDefault("FETCH_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36")
	v.SetDefault("FETCH_MAX_BODY_BYTES", 5<<20)

	v.SetDefault("DEFAULT_CURRENCY", "BRL")
	v.SetDefault("DOLLAR_CURRENCY", "BRL")
	v.SetDefault("USE_PRICE_SELECTOR", true)

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("CHECK_SCHEDULE", "0 0 */12 * * *")
	v.SetDefault("SWEEP_WORKERS", 4)
	v.SetDefault("SWEEP_INTERVAL", "2s")
	v.SetDefault("SCHEDULER_RUN_ON_START", false)

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_PER_SECOND", 10)
	v.SetDefault("API_KEYS", "")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is 'postgres'")
		}
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres', 'sqlite3' or 'memory', got: %s", cfg.Database.Driver)
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got: %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BODY_BYTES must be positive")
	}

	if len(cfg.Pricing.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got: %q", cfg.Pricing.DefaultCurrency)
	}
	if len(cfg.Pricing.DollarCurrency) != 3 {
		return fmt.Errorf("DOLLAR_CURRENCY must be a 3-letter code, got: %q", cfg.Pricing.DollarCurrency)
	}

	if cfg.Scheduler.Workers <= 0 {
		return fmt.Errorf("SWEEP_WORKERS must be positive, got: %d", cfg.Scheduler.Workers)
	}
	if cfg.Scheduler.Interval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must not be negative")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.Scheduler.Schedule); err != nil {
		return fmt.Errorf("CHECK_SCHEDULE is not a valid cron expression: %w", err)
	}

	if cfg.API.RateLimitPerSecond < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must not be negative")
	}

	return nil
}
