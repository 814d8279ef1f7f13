package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/report"
	"github.com/j-veylop/oee-dashboard-tui/internal/services"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a KPI report without opening the dashboard",
	Long: `Fetch the production records once and print the summary KPIs, the
aggregate table and the top downtime reasons.

Examples:
  oee report                                  # Whole dataset, text output
  oee report --machine M1 --from 2024-01-01   # One machine since a date
  oee report --group shift --format json      # Per shift, as JSON
  oee report -f production.csv --top 5        # Local file, five reasons`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

// Flags
var (
	reportMachine string
	reportFrom    string
	reportTo      string
	reportFormat  string
	reportGroup   string
	reportTop     int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportMachine, "machine", "m", "", "Only include records of this machine")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "First date to include")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Last date to include")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "o", "text", "Output format: text, json")
	reportCmd.Flags().StringVarP(&reportGroup, "group", "g", "", "Group by: date, machine, shift (default: configured aggregation)")
	reportCmd.Flags().IntVarP(&reportTop, "top", "t", 10, "Number of downtime reasons, 0 to omit")
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(reportFormat)
	if err != nil {
		return err
	}
	filter, err := parseFilter(reportMachine, reportFrom, reportTo)
	if err != nil {
		return err
	}
	if reportTop < 0 {
		return fmt.Errorf("--top must not be negative, got %d", reportTop)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.RefreshInterval = 0
	cfg.NotificationsEnabled = false
	logger.Setup(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel))

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer mgr.Close()

	groupBy := mgr.Aggregation()
	if reportGroup != "" {
		if groupBy, err = models.ParseGroupBy(reportGroup); err != nil {
			return fmt.Errorf("--group: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	defer cancel()

	ds, err := mgr.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	r := report.Build(ds, report.Options{
		Filter:     filter,
		GroupBy:    groupBy,
		TopReasons: reportTop,
	})

	if format == "json" {
		return report.WriteJSON(cmd.OutOrStdout(), r)
	}
	return report.WriteText(cmd.OutOrStdout(), r)
}

// parseFormat validates an output format flag.
func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "text", "json":
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// parseFilter builds a record filter from the report flags.
func parseFilter(machine, from, to string) (oee.Filter, error) {
	f := oee.Filter{Machine: strings.TrimSpace(machine)}

	var err error
	if f.From, err = parseDateFlag("from", from); err != nil {
		return f, err
	}
	if f.To, err = parseDateFlag("to", to); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return f, nil
}

// parseDateFlag accepts the same date layouts as the sheet. Empty means no
// bound.
func parseDateFlag(name, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, ok := oee.ParseDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("--%s: cannot parse date %q", name, s)
	}
	return t, nil
}
