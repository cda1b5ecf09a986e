package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
)

var fetchOut string

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "where to save the raw response (default from config, file.json)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--out file.json]",
	Short: "Fetches the stats response and saves it as JSON.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := fetchOut
		if out == "" {
			out = cfg.Files.Raw
		}

		client := newClient()
		q := cfg.StatsQuery()
		logger.Info("fetching stats", zap.String("url", client.StatsURL(q)))

		body, err := client.FetchStats(cmd.Context(), q)
		if err != nil {
			return err
		}
		if err := balldontlie.Save(out, body); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %d bytes to %s\n", len(body), out)
		return nil
	},
}
