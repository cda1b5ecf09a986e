package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortuna/nbaquant/internal/pipeline"
)

var (
	runSkipFetch bool
	runDryRun    bool
	runPreview   bool
)

func init() {
	flags := runCmd.Flags()
	flags.BoolVar(&runSkipFetch, "skip-fetch", false, "export the raw file already on disk")
	flags.BoolVar(&runDryRun, "dry-run", false, "derive rows without writing any file, sink or event")
	flags.BoolVar(&runPreview, "preview", false, "print the exported rows as a table")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--skip-fetch] [--dry-run] [--preview]",
	Short: "Fetches, saves and exports in one go.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		result, err := deps.runner.Run(cmd.Context(), pipeline.Spec{
			Query:     cfg.StatsQuery(),
			SkipFetch: runSkipFetch,
			DryRun:    runDryRun,
		}, pipeline.LogReporter{Logger: logger})
		if err != nil {
			return err
		}

		if runPreview || runDryRun {
			renderRows(cmd.OutOrStdout(), result.Rows)
		}
		for _, s := range result.Sinks {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(result.Rows), s)
		}
		return nil
	},
}
