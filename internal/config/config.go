package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"
	"github.com/spf13/viper"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendPostgres}

type Config struct {
	// HTTP Server
	Port               string
	AccessEnabled      bool
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string
	// CategoriesFile seeds the memory backend; empty uses the built-ins.
	CategoriesFile string

	// AMQP
	AMQPURL         string
	AMQPExchange    string
	AMQPEventsQueue string
	AMQPAlertsQueue string

	// Spend cache
	SpendCacheTTL  time.Duration
	SpendCacheSize int

	// Worker
	AlertScanSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// SetDefaults registers every key with its default so that environment
// variables resolve through AutomaticEnv. Keys are the lower-case form of the
// environment variable names.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")
	v.SetDefault("access_enabled", true)
	v.SetDefault("rate_limit_per_minute", 60)

	v.SetDefault("data_backend", BackendMemory)
	v.SetDefault("sqlite_db_path", "./data/fintrack.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("categories_file", "")

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "fintrack")
	v.SetDefault("amqp_events_queue", "transaction_events")
	v.SetDefault("amqp_alerts_queue", "budget_alerts")

	v.SetDefault("spend_cache_ttl", 5*time.Minute)
	v.SetDefault("spend_cache_size", 512)

	v.SetDefault("alert_scan_schedule", "@every 15m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_sheet_name", "Report")
	v.SetDefault("google_service_account_file", "")
	v.SetDefault("google_service_account_json", "")

	v.AutomaticEnv()
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error; variables already set are left alone.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ReadFile merges an optional YAML config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the global viper instance, which the
// CLI binds its flags into.
func Load() *Config {
	v := viper.GetViper()
	SetDefaults(v)
	return FromViper(v)
}

// FromViper builds a Config from v. Call SetDefaults first.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:               strings.TrimSpace(v.GetString("port")),
		AccessEnabled:      v.GetBool("access_enabled"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),

		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("data_backend"))),
		SQLiteDBPath: v.GetString("sqlite_db_path"),
		PostgresURL:  v.GetString("postgres_url"),

		CategoriesFile: v.GetString("categories_file"),

		AMQPURL:         v.GetString("amqp_url"),
		AMQPExchange:    v.GetString("amqp_exchange"),
		AMQPEventsQueue: v.GetString("amqp_events_queue"),
		AMQPAlertsQueue: v.GetString("amqp_alerts_queue"),

		SpendCacheTTL:  v.GetDuration("spend_cache_ttl"),
		SpendCacheSize: v.GetInt("spend_cache_size"),

		AlertScanSchedule: v.GetString("alert_scan_schedule"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),

		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
	}
}

// AMQPEnabled reports whether an AMQP broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ExportEnabled reports whether Google Sheets export is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == BackendPostgres {
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsQueue == "" || c.AMQPAlertsQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.SpendCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid spend cache TTL %v: must not be negative", c.SpendCacheTTL))
	}
	if c.SpendCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid spend cache size %d: must be at least 1", c.SpendCacheSize))
	}

	if _, err := cron.Parse(c.AlertScanSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid alert scan schedule '%s': %v", c.AlertScanSchedule, err))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
