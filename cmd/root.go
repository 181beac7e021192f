package cmd

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "imposer",
		Short: "Book imposition tool for printing page images as signatures",
		Long: `Imposer lays out ordered page images as 4-up print signatures or 2-up e-book
spreads, adds registration guides, and merges the finished sheets into binder
PDFs.

Pages are listed in manifests (CSV, JSONL or Parquet with a "file" column).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			slog.SetDefault(slog.New(newLogHandler(level)))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "TOML config file")

	cmd.AddCommand(newImposeCmd())
	cmd.AddCommand(newPlanCmd())

	return cmd
}

func newLogHandler(level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
