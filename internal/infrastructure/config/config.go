package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Stripe   StripeConfig
	Billing  BillingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string // used when Driver == "sqlite"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings. Redis is optional; when
// disabled the webhook idempotency store falls back to in-memory.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
}

// StripeConfig holds payment provider settings
type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PlusPriceID     string
	DefaultCurrency string
	IsTestMode      bool
	// PlanNames maps provider price IDs to reporting plan names
	PlanNames map[string]string
}

// BillingConfig holds plan limits and cache behavior
type BillingConfig struct {
	FreeUploadLimit       int64
	PlusUploadLimit       int64
	MetricsCacheTTL       time.Duration
	FailedPaymentsTTL     time.Duration
	WebhookIdempotencyTTL time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with FILEHOST_ prefix (e.g. FILEHOST_STRIPE_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("FILEHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Stripe: StripeConfig{
			SecretKey:       v.GetString("stripe.secret_key"),
			WebhookSecret:   v.GetString("stripe.webhook_secret"),
			PlusPriceID:     v.GetString("stripe.plus_price_id"),
			DefaultCurrency: v.GetString("stripe.default_currency"),
			IsTestMode:      v.GetBool("stripe.is_test_mode"),
			PlanNames:       v.GetStringMapString("stripe.plan_names"),
		},
		Billing: BillingConfig{
			FreeUploadLimit:       v.GetInt64("billing.free_upload_limit"),
			PlusUploadLimit:       v.GetInt64("billing.plus_upload_limit"),
			MetricsCacheTTL:       v.GetDuration("billing.metrics_cache_ttl"),
			FailedPaymentsTTL:     v.GetDuration("billing.failed_payments_ttl"),
			WebhookIdempotencyTTL: v.GetDuration("billing.webhook_idempotency_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "filehost-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "filehost"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "filehost"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "filehost.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1 MiB
	}

	if cfg.Stripe.DefaultCurrency == "" {
		cfg.Stripe.DefaultCurrency = "usd"
	}
	if cfg.Stripe.PlanNames == nil {
		cfg.Stripe.PlanNames = map[string]string{}
	}
	if cfg.Stripe.PlusPriceID != "" {
		if _, ok := cfg.Stripe.PlanNames[cfg.Stripe.PlusPriceID]; !ok {
			cfg.Stripe.PlanNames[cfg.Stripe.PlusPriceID] = "plus"
		}
	}

	if cfg.Billing.FreeUploadLimit == 0 {
		cfg.Billing.FreeUploadLimit = 100
	}
	if cfg.Billing.PlusUploadLimit == 0 {
		cfg.Billing.PlusUploadLimit = 10000
	}
	if cfg.Billing.MetricsCacheTTL == 0 {
		cfg.Billing.MetricsCacheTTL = 10 * time.Minute
	}
	if cfg.Billing.FailedPaymentsTTL == 0 {
		cfg.Billing.FailedPaymentsTTL = 3 * time.Minute
	}
	if cfg.Billing.WebhookIdempotencyTTL == 0 {
		cfg.Billing.WebhookIdempotencyTTL = 24 * time.Hour
	}
}

// validate checks that the configuration is internally consistent
func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported database driver: %s", cfg.Database.Driver)
	}

	if cfg.App.Env == "production" {
		if cfg.Stripe.SecretKey == "" {
			return fmt.Errorf("config: stripe secret key is required in production")
		}
		if cfg.Stripe.WebhookSecret == "" {
			return fmt.Errorf("config: stripe webhook secret is required in production")
		}
		if cfg.Stripe.PlusPriceID == "" {
			return fmt.Errorf("config: stripe plus price id is required in production")
		}
	}

	if cfg.Billing.FreeUploadLimit < 0 || cfg.Billing.PlusUploadLimit < 0 {
		return fmt.Errorf("config: upload limits must not be negative")
	}

	return nil
}
