package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/imposer/internal/pipeline"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <manifest>",
		Short: "Print the imposition plan of a manifest as YAML",
		Long: `Load a manifest, read the size and resolution of its first page and print
the sheet geometry and every placement without rendering anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			job, err := pipeline.New(cfg, nil).Prepare(args[0])
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(job.Plan)
			if err != nil {
				return fmt.Errorf("failed to marshal plan: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	addConfigFlags(cmd.Flags())

	return cmd
}
