// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultSheetID is the demo production sheet loaded when nothing else is
// configured.
const DefaultSheetID = "1qMtaUtEgb2ei64NTzpr_dksoxjSm2TCWX1vqgDusGYs"

// Default values
const (
	defaultFetchTimeout     = 30 * time.Second
	defaultHistoryRetention = 180 * 24 * time.Hour
	defaultAlertThreshold   = 0.60
	defaultLogLevel         = "info"

	appDirName = "oee-dashboard"
)

// configDir returns ~/.config/oee-dashboard, or "" when the home directory
// is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

// inConfigDir joins name onto the config directory, falling back to the
// working directory.
func inConfigDir(name string) string {
	dir := configDir()
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	return inConfigDir("history.db")
}

// getDefaultOverridesPath returns the default path for machine overrides.
func getDefaultOverridesPath() string {
	return inConfigDir("overrides.yaml")
}

// getDefaultLogPath returns the default log file path.
func getDefaultLogPath() string {
	return inConfigDir("oee.log")
}
