package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// isolate points HOME and the working directory at an empty temp dir so no
// real .env is picked up, and routes every path into it.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "data", "history.db"))
	t.Setenv("OVERRIDES_PATH", filepath.Join(tmpDir, "overrides.yaml"))
	t.Setenv("LOG_PATH", filepath.Join(tmpDir, "logs", "oee.log"))

	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return tmpDir
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "test_value")

	if got := getEnvString("TEST_ENV_STRING", "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}
	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_ENV_FLOAT"

	tests := []struct {
		name   string
		envVal string
		want   float64
	}{
		{"Valid", "2.5", 2.5},
		{"Padded", " 3 ", 3},
		{"Invalid", "fast", 1},
		{"Empty", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getEnvFloat(key, 1); got != tt.want {
				t.Errorf("getEnvFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_ENV_BOOL"

	tests := []struct {
		envVal string
		def    bool
		want   bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"false", true, false},
		{"no", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.envVal, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getEnvBool(key, tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envVal, got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	want := map[string]string{
		getDefaultDatabasePath():  filepath.Join(home, ".config", "oee-dashboard", "history.db"),
		getDefaultOverridesPath(): filepath.Join(home, ".config", "oee-dashboard", "overrides.yaml"),
		getDefaultLogPath():       filepath.Join(home, ".config", "oee-dashboard", "oee.log"),
	}
	for got, expected := range want {
		if got != expected {
			t.Errorf("default path = %q, want %q", got, expected)
		}
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	if paths[0] != filepath.Join(cwd, ".env") {
		t.Errorf("first .env path = %q, want current directory", paths[0])
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SheetID != DefaultSheetID {
		t.Errorf("SheetID = %q, want default", cfg.SheetID)
	}
	if cfg.FetchTimeout != defaultFetchTimeout {
		t.Errorf("FetchTimeout = %v, want %v", cfg.FetchTimeout, defaultFetchTimeout)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("RefreshInterval = %v, want 0", cfg.RefreshInterval)
	}
	if cfg.AggregationLevel != models.GroupByDate {
		t.Errorf("AggregationLevel = %v", cfg.AggregationLevel)
	}
	if cfg.AvailabilityFallback != models.FallbackAssumeFull || cfg.PerformanceFallback != models.FallbackAssumeFull {
		t.Error("fallbacks should default to assume_full")
	}
	if cfg.DeriveActualTime {
		t.Error("DeriveActualTime should default to false")
	}
	if !cfg.NotificationsEnabled {
		t.Error("notifications should default to on")
	}
	if cfg.UsesFile() {
		t.Error("default source should be the sheet")
	}

	for _, dir := range []string{"data", "logs"} {
		if _, err := os.Stat(filepath.Join(tmpDir, dir)); err != nil {
			t.Errorf("directory %s was not created: %v", dir, err)
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SHEET_ID", "abc123")
	t.Setenv("SOURCE_FILE", "/tmp/prod.csv")
	t.Setenv("DEFAULT_IDEAL_RATE", "2.5")
	t.Setenv("AGGREGATION_LEVEL", "shift")
	t.Setenv("PERFORMANCE_FALLBACK", "unknown")
	t.Setenv("DERIVE_ACTUAL_TIME", "true")
	t.Setenv("OEE_ALERT_THRESHOLD", "0.85")
	t.Setenv("REFRESH_INTERVAL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SheetID != "abc123" || !cfg.UsesFile() {
		t.Errorf("source = %q / %q", cfg.SheetID, cfg.SourceFile)
	}
	if cfg.AggregationLevel != models.GroupByShift {
		t.Errorf("AggregationLevel = %v", cfg.AggregationLevel)
	}
	if cfg.PerformanceFallback != models.FallbackUnknown {
		t.Errorf("PerformanceFallback = %v", cfg.PerformanceFallback)
	}
	if cfg.RefreshInterval != 5*time.Minute || cfg.AlertThreshold != 0.85 {
		t.Errorf("interval/threshold = %v / %v", cfg.RefreshInterval, cfg.AlertThreshold)
	}

	s := cfg.Settings(map[string]float64{"M1": 3})
	if s.DefaultIdealRate != 2.5 || !s.DeriveActualTime || s.PerformanceFallback != models.FallbackUnknown {
		t.Errorf("settings = %+v", s)
	}
	if r, ok := s.Override("M1"); !ok || r != 3 {
		t.Errorf("override = %v, %v", r, ok)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("AGGREGATION_LEVEL", "week")
	t.Setenv("AVAILABILITY_FALLBACK", "zero")
	t.Setenv("OEE_ALERT_THRESHOLD", "85")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail")
	}
	for _, key := range []string{"AGGREGATION_LEVEL", "AVAILABILITY_FALLBACK", "OEE_ALERT_THRESHOLD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err, key)
		}
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := isolate(t)
	content := "SHEET_ID=from-env-file\nDEFAULT_IDEAL_RATE=4\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("SHEET_ID", "")
	t.Setenv("DEFAULT_IDEAL_RATE", "")
	os.Unsetenv("SHEET_ID")
	os.Unsetenv("DEFAULT_IDEAL_RATE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SheetID != "from-env-file" || cfg.DefaultIdealRate != 4 {
		t.Errorf("config = %q / %v, want values from .env", cfg.SheetID, cfg.DefaultIdealRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"OK", Config{SheetID: "abc", AlertThreshold: 0.6}, ""},
		{"NoSource", Config{}, "SHEET_ID or SOURCE_FILE"},
		{"FileOnly", Config{SourceFile: "x.csv"}, ""},
		{"NegativeRate", Config{SheetID: "a", DefaultIdealRate: -1}, "DEFAULT_IDEAL_RATE"},
		{"BadTemplate", Config{SheetID: "a", SheetURLTemplate: "http://x/csv"}, "SHEET_URL_TEMPLATE"},
		{"NegativeInterval", Config{SheetID: "a", RefreshInterval: -time.Second}, "REFRESH_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
