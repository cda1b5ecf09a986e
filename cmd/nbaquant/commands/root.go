package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/config"
	"github.com/fortuna/nbaquant/internal/logging"
)

var (
	configPath string
	seasons    []int
	playerIDs  []int
	perPage    int
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "nbaquant",
	Short:         "nbaquant fetches player box scores and exports per-game rebounds.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("season") {
			loaded.Query.Seasons = seasons
		}
		if flags.Changed("player") {
			loaded.Query.PlayerIDs = playerIDs
		}
		if flags.Changed("per-page") {
			loaded.Query.PerPage = perPage
		}
		if flags.Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		l, err := logging.New(loaded.LogLevel, loaded.LogFile)
		if err != nil {
			return err
		}

		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultFile, "TOML config file")
	flags.IntSliceVar(&seasons, "season", nil, "season(s) to query, e.g. --season 2023")
	flags.IntSliceVar(&playerIDs, "player", nil, "player id(s) to query, e.g. --player 95")
	flags.IntVar(&perPage, "per-page", 0, "records per page (1-100)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
