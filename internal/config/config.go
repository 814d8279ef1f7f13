package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

// Config holds the application configuration.
type Config struct {
	SheetID              string
	SheetURLTemplate     string
	SourceFile           string
	DatabasePath         string
	OverridesPath        string
	LogPath              string
	LogLevel             string
	FetchTimeout         time.Duration
	RefreshInterval      time.Duration
	HistoryRetention     time.Duration
	DefaultIdealRate     float64
	AlertThreshold       float64
	AggregationLevel     models.GroupBy
	AvailabilityFallback models.FallbackPolicy
	PerformanceFallback  models.FallbackPolicy
	DeriveActualTime     bool
	NotificationsEnabled bool

	// Pinned marks settings given on the command line. They take precedence
	// over values stored in the overrides file until changed from the TUI.
	Pinned Pins
}

// Pins records which settings were set explicitly by command-line flags.
type Pins struct {
	SheetID          bool
	DefaultIdealRate bool
	Aggregation      bool
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		SheetID:              getEnvString("SHEET_ID", DefaultSheetID),
		SheetURLTemplate:     getEnvString("SHEET_URL_TEMPLATE", ""),
		SourceFile:           getEnvString("SOURCE_FILE", ""),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		OverridesPath:        getEnvString("OVERRIDES_PATH", getDefaultOverridesPath()),
		LogPath:              getEnvString("LOG_PATH", getDefaultLogPath()),
		LogLevel:             getEnvString("LOG_LEVEL", defaultLogLevel),
		FetchTimeout:         getEnvDuration("FETCH_TIMEOUT", defaultFetchTimeout),
		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", 0),
		HistoryRetention:     getEnvDuration("HISTORY_RETENTION", defaultHistoryRetention),
		DefaultIdealRate:     getEnvFloat("DEFAULT_IDEAL_RATE", 0),
		AlertThreshold:       getEnvFloat("OEE_ALERT_THRESHOLD", defaultAlertThreshold),
		DeriveActualTime:     getEnvBool("DERIVE_ACTUAL_TIME", false),
		NotificationsEnabled: getEnvBool("NOTIFICATIONS", true),
	}

	var errs []error
	var err error
	if cfg.AggregationLevel, err = models.ParseGroupBy(getEnvString("AGGREGATION_LEVEL", "date")); err != nil {
		errs = append(errs, fmt.Errorf("AGGREGATION_LEVEL: %w", err))
	}
	if cfg.AvailabilityFallback, err = models.ParseFallbackPolicy(getEnvString("AVAILABILITY_FALLBACK", "assume_full")); err != nil {
		errs = append(errs, fmt.Errorf("AVAILABILITY_FALLBACK: %w", err))
	}
	if cfg.PerformanceFallback, err = models.ParseFallbackPolicy(getEnvString("PERFORMANCE_FALLBACK", "assume_full")); err != nil {
		errs = append(errs, fmt.Errorf("PERFORMANCE_FALLBACK: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, path := range []string{cfg.DatabasePath, cfg.OverridesPath, cfg.LogPath} {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks value ranges that parsing alone does not catch.
func (c *Config) Validate() error {
	var errs []error
	if c.SourceFile == "" && strings.TrimSpace(c.SheetID) == "" {
		errs = append(errs, errors.New("either SHEET_ID or SOURCE_FILE is required"))
	}
	if c.DefaultIdealRate < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_IDEAL_RATE must not be negative, got %v", c.DefaultIdealRate))
	}
	if c.AlertThreshold < 0 || c.AlertThreshold > 1 {
		errs = append(errs, fmt.Errorf("OEE_ALERT_THRESHOLD must be between 0 and 1, got %v", c.AlertThreshold))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must not be negative, got %v", c.RefreshInterval))
	}
	if t := c.SheetURLTemplate; t != "" && !strings.Contains(t, "{sheet_id}") {
		errs = append(errs, fmt.Errorf("SHEET_URL_TEMPLATE must contain {sheet_id}, got %q", t))
	}
	return errors.Join(errs...)
}

// Settings returns the calculation settings described by the config, with
// rates as the per-machine override table.
func (c *Config) Settings(rates map[string]float64) oee.Settings {
	s := oee.Settings{
		DefaultIdealRate:     c.DefaultIdealRate,
		AvailabilityFallback: c.AvailabilityFallback,
		PerformanceFallback:  c.PerformanceFallback,
		DeriveActualTime:     c.DeriveActualTime,
	}
	return s.WithMachineRates(rates)
}

// UsesFile reports whether data comes from a local file instead of a sheet.
func (c *Config) UsesFile() bool {
	return c.SourceFile != ""
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if dir := configDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".oee-dashboard.env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the forms strconv.ParseBool does plus yes/no and on/off.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
