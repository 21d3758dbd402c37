package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Receiving ReceivingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the connection URL used by the migration tool
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
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
	CORSAllowOrigins []string
}

// ReceivingConfig holds goods-receipt processing settings
type ReceivingConfig struct {
	// TolerancePercentage is the allowed over-receipt margin
	TolerancePercentage float64
	// AllowOverReceiving permits receipt beyond the ordered quantity within tolerance
	AllowOverReceiving bool
	// RequireBatchTracking makes batch numbers mandatory on receipt lines
	RequireBatchTracking bool
	// RequireExpiryDates makes expiry dates mandatory on receipt lines
	RequireExpiryDates bool
	// DuplicateStrategy selects the duplicate guard: "time_window" or "idempotency_key"
	DuplicateStrategy string
	// DuplicateWindow is the rejection window for the time_window strategy
	DuplicateWindow time.Duration
	// IdempotencyTTL is the key retention for the idempotency_key strategy
	IdempotencyTTL time.Duration
}

// Load reads configuration from file and environment.
// Environment variables use the RETAILCORE_ prefix with underscores,
// e.g. RETAILCORE_DATABASE_HOST.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/retailcore")

	v.SetEnvPrefix("RETAILCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus environment apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "retailcore")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "retailcore")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "retailcore")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 30)
	v.SetDefault("database.connmaxidletime", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.readtimeout", 15*time.Second)
	v.SetDefault("http.writetimeout", 15*time.Second)
	v.SetDefault("http.idletimeout", 60*time.Second)
	v.SetDefault("http.corsalloworigins", []string{})

	v.SetDefault("receiving.tolerancepercentage", 5.0)
	v.SetDefault("receiving.allowoverreceiving", false)
	v.SetDefault("receiving.requirebatchtracking", false)
	v.SetDefault("receiving.requireexpirydates", false)
	v.SetDefault("receiving.duplicatestrategy", "time_window")
	v.SetDefault("receiving.duplicatewindow", 5*time.Minute)
	v.SetDefault("receiving.idempotencyttl", 24*time.Hour)
}

func (c *Config) validate() error {
	if c.Receiving.TolerancePercentage < 0 {
		return fmt.Errorf("receiving.tolerancepercentage cannot be negative")
	}
	switch c.Receiving.DuplicateStrategy {
	case "time_window", "idempotency_key":
	default:
		return fmt.Errorf("receiving.duplicatestrategy must be time_window or idempotency_key, got %q", c.Receiving.DuplicateStrategy)
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
