// Command accidentctl loads, inspects and imports accident exports from the
// command line.
package main

import (
	"fmt"
	"os"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose   bool
	encoding  string
	delimiter string
	timeout   time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "accidentctl",
	Short: "Inspect and import traffic accident exports",
	Long: `accidentctl reads the semicolon-separated accident export used by the
dashboard API, applies the same normalization, and reports, summarizes or
imports the resulting table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, true)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "latin1", "Text encoding of the export (latin1, windows-1252, utf-8)")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", ";", "Field delimiter")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(importCmd)
}

// loadFile applies the global decoding flags.
func loadFile(path string) (*accidents.Table, accidents.LoadReport, error) {
	runes := []rune(delimiter)
	if len(runes) != 1 {
		return nil, accidents.LoadReport{}, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	return accidents.Load(path, accidents.Options{
		Delimiter: runes[0],
		Encoding:  encoding,
		Logger:    logger,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
