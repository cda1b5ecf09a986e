package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fortuna/nbaquant/internal/api/rest"
	"github.com/fortuna/nbaquant/internal/api/websocket"
	"github.com/fortuna/nbaquant/internal/pipeline"
	"github.com/fortuna/nbaquant/internal/scheduler"
	"github.com/fortuna/nbaquant/internal/store/repository"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the REST API and the export websocket.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		wsServer := websocket.NewServer(logger)

		exports := rest.NewExportHandler(deps.runner, cfg.StatsQuery(), cfg.Files.Spreadsheet, logger, wsServer)

		var health rest.HealthChecker
		if deps.db != nil {
			health = deps.db
			exports.WithRunStore(repository.NewExportRepository(deps.db))
		}

		sched := scheduler.NewOrchestrator(deps.runner, &scheduler.Config{
			Interval:   cfg.RefreshInterval(),
			RunOnStart: true,
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			Spec:       pipeline.Spec{Query: cfg.StatsQuery()},
		}, logger, exports.Publish)

		handler := rest.NewHandler(cfg.Files.Raw, health).WithScheduler(sched)
		restServer := rest.NewServer(cfg.Server.RESTPort, handler, exports, logger)

		eg, ctx := errgroup.WithContext(cmd.Context())
		eg.Go(func() error {
			return ignoreClosed(restServer.Start())
		})
		eg.Go(func() error {
			return ignoreClosed(wsServer.Start(cfg.Server.WSPort))
		})
		eg.Go(func() error {
			sched.Start(ctx)
			return nil
		})

		logger.Info("nbaquant started",
			zap.String("rest_port", cfg.Server.RESTPort),
			zap.String("ws_port", cfg.Server.WSPort),
			zap.Duration("refresh", cfg.RefreshInterval()),
		)

		eg.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down")
			sched.Stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return errors.Join(restServer.Shutdown(shutdownCtx), wsServer.Shutdown(shutdownCtx))
		})

		return eg.Wait()
	},
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
