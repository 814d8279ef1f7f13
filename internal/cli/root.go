package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/j-veylop/oee-dashboard-tui/internal/config"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "oee",
	Short: "Terminal dashboard for Overall Equipment Effectiveness",
	Long: `oee loads a spreadsheet of production records, detects the columns that
hold time, output and downtime, and computes Availability, Performance,
Quality and OEE per record.

Without a subcommand it opens the interactive dashboard.

Configuration is read from .env files and environment variables:
  SHEET_ID, SOURCE_FILE, DEFAULT_IDEAL_RATE, AGGREGATION_LEVEL,
  AVAILABILITY_FALLBACK, PERFORMANCE_FALLBACK, DERIVE_ACTUAL_TIME,
  OEE_ALERT_THRESHOLD, NOTIFICATIONS, DATABASE_PATH, OVERRIDES_PATH,
  LOG_PATH, LOG_LEVEL, FETCH_TIMEOUT, REFRESH_INTERVAL`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	sheetID   string
	file      string
	idealRate float64
	aggregate string
}

var globals globalOptions

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	globals.bind(rootCmd.PersistentFlags())
}

func (o *globalOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.sheetID, "sheet-id", "s", "", "Google Sheet id or URL")
	fs.StringVarP(&o.file, "file", "f", "", "Read records from a local CSV file instead of a sheet")
	fs.Float64Var(&o.idealRate, "ideal-rate", 0, "Default ideal rate in units per minute")
	fs.StringVarP(&o.aggregate, "aggregate", "a", "", "Aggregation level: date, machine, shift")
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := globals.apply(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies the flags that were set into cfg. Settings that the overrides
// file can also hold are pinned so the flag wins.
func (o *globalOptions) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("file") && fs.Changed("sheet-id") {
		return fmt.Errorf("--file and --sheet-id are mutually exclusive")
	}
	if fs.Changed("file") {
		cfg.SourceFile = o.file
	}
	if fs.Changed("sheet-id") {
		cfg.SheetID = o.sheetID
		cfg.SourceFile = ""
		cfg.Pinned.SheetID = true
	}
	if fs.Changed("ideal-rate") {
		if o.idealRate < 0 {
			return fmt.Errorf("--ideal-rate must not be negative, got %v", o.idealRate)
		}
		cfg.DefaultIdealRate = o.idealRate
		cfg.Pinned.DefaultIdealRate = true
	}
	if fs.Changed("aggregate") {
		g, err := models.ParseGroupBy(o.aggregate)
		if err != nil {
			return fmt.Errorf("--aggregate: %w", err)
		}
		cfg.AggregationLevel = g
		cfg.Pinned.Aggregation = true
	}
	return nil
}
