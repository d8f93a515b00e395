package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/charts"
	"accident-dashboard-api/config"
	"accident-dashboard-api/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// summary flags
	filter    accidents.Selection
	dateFrom  string
	dateTo    string
	rootLabel string
	chartView string
	chartOut  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load an export and print the load report",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Filter an export and print the dashboard views as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the accidents table in PostgreSQL with the export contents",
	Long: `import loads the export, migrates the accidents table and bulk copies the
canonical rows. Connection settings come from the DB_* environment variables.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := summaryCmd.Flags()
	f.StringVar(&filter.Municipality, "municipio", "", "Municipality filter")
	f.StringVar(&filter.Class, "clase", "", "Accident class filter")
	f.StringVar(&filter.Severity, "gravedad", "", "Severity filter")
	f.StringVar(&filter.Weekday, "dia", "", "Weekday filter")
	f.StringVar(&filter.District, "comuna", "", "District filter")
	f.StringVar(&filter.Text, "q", "", "Substring of address or neighborhood")
	f.StringVar(&dateFrom, "desde", "", "Start date, YYYY-MM-DD (needs --hasta)")
	f.StringVar(&dateTo, "hasta", "", "End date, YYYY-MM-DD (needs --desde)")
	f.StringVar(&rootLabel, "root", "Medellín", "Root label of the district view")
	f.StringVar(&chartView, "chart", "", "Render this view as PNG instead of printing JSON")
	f.StringVarP(&chartOut, "out", "o", "chart.png", "PNG output path for --chart")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runInspect(cmd *cobra.Command, args []string) error {
	table, report, err := loadFile(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, struct {
		Report  accidents.LoadReport    `json:"report"`
		Options accidents.FilterOptions `json:"options"`
	}{report, table.Options()})
}

func selectionFromFlags() (accidents.Selection, error) {
	sel := filter
	if dateFrom == "" && dateTo == "" {
		return sel, nil
	}
	var rng accidents.DateRange
	for _, b := range []struct {
		raw  string
		dest *time.Time
	}{{dateFrom, &rng.From}, {dateTo, &rng.To}} {
		if b.raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", b.raw)
		if err != nil {
			return sel, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", b.raw)
		}
		*b.dest = t
	}
	sel.DateRange = &rng
	return sel, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	sel, err := selectionFromFlags()
	if err != nil {
		return err
	}
	table, _, err := loadFile(args[0])
	if err != nil {
		return err
	}
	filtered, err := table.Filter(sel)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	s, err := accidents.Summarize(ctx, filtered, rootLabel)
	if err != nil {
		return err
	}

	if chartView == "" {
		return printJSON(cmd, s)
	}
	out, err := os.Create(chartOut)
	if err != nil {
		return err
	}
	if err := charts.Render(out, chartView, s); err != nil {
		out.Close()
		os.Remove(chartOut)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", chartOut)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	table, report, err := loadFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate accidents: %w", err)
	}

	importer, err := store.NewImporter(ctx, cfg.Database.GetURL())
	if err != nil {
		return err
	}
	defer importer.Close()

	n, err := importer.Replace(ctx, table.Rows())
	if err != nil {
		return err
	}
	logger.Info("import finished",
		zap.Int64("rows", n),
		zap.Int("dropped", report.DroppedTotal()))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows (%d dropped)\n", n, report.DroppedTotal())
	return nil
}
