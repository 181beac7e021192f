package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/imposer/internal/pipeline"
)

func newImposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impose",
		Short: "Render imposed sheets and binders for each manifest",
		Long: `Render every manifest in --manifests.

In signature mode the first two and last two pages are duplicated as covers,
pages are laid out 4-up on letter sheets and the sheets are merged into
binder, binder_even, binder_odd and binder_covers PDFs. In spread mode pages
are paired side by side for e-books.

A manifest that fails is reported and the remaining manifests still run.`,
		Example: `  imposer impose --manifests red,yellow,blue
  imposer impose --mode spread --format png --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			slog.Info("Starting imposition", "manifests", cfg.Manifests, "mode", cfg.Mode, "format", cfg.Format, "workers", cfg.Workers)

			o := pipeline.New(cfg, slog.Default())
			results := o.RunAll(cmd.Context(), cfg.Manifests)

			fmt.Fprintln(os.Stdout, renderSummary(results))

			failed := 0
			for _, r := range results {
				if r.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d manifests failed", failed, len(results))
			}
			return nil
		},
	}

	addConfigFlags(cmd.Flags())

	return cmd
}
