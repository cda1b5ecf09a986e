package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
	"github.com/fortuna/nbaquant/internal/pipeline"
	"github.com/fortuna/nbaquant/internal/publisher"
	"github.com/fortuna/nbaquant/internal/store"
	"github.com/fortuna/nbaquant/internal/store/repository"
)

// closers releases resources opened while wiring a command.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

func newClient() *balldontlie.Client {
	return balldontlie.New(cfg.API.BaseURL, cfg.API.Key,
		balldontlie.WithTimeout(cfg.Timeout()),
		balldontlie.WithLogger(logger),
		balldontlie.WithRateLimit(float64(cfg.API.RequestsPerMinute), 1),
	)
}

func newXLSXWriter(path string) *export.XLSXWriter {
	w := export.NewXLSXWriter(path)
	if cfg.Files.Sheet != "" {
		w.Sheet = cfg.Files.Sheet
	}
	return w
}

// openDatabase returns nil when no DSN is configured.
func openDatabase(ctx context.Context) (*store.Database, error) {
	if cfg.Database.DSN == "" {
		return nil, nil
	}
	db, err := store.NewDatabase(cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("connected to database")
	return db, nil
}

// sinks returns the spreadsheet writer followed by the optional database
// sink.
func sinks(ctx context.Context, spreadsheet string) ([]export.Sink, *store.Database, closers, error) {
	out := []export.Sink{newXLSXWriter(spreadsheet)}

	db, err := openDatabase(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if db == nil {
		return out, nil, nil, nil
	}

	out = append(out, repository.NewExportSink(repository.NewExportRepository(db), logger))
	return out, db, closers{db.Close}, nil
}

type runnerDeps struct {
	runner *pipeline.Runner
	db     *store.Database
	closers
}

func buildRunner(ctx context.Context) (*runnerDeps, error) {
	client := newClient()

	outs, db, cl, err := sinks(ctx, cfg.Files.Spreadsheet)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithSinks(outs...), pipeline.WithLogger(logger)}
	if cfg.Redis.URL != "" {
		pub, err := publisher.NewRedisPublisher(cfg.Redis.URL)
		if err != nil {
			cl.Close()
			return nil, err
		}
		logger.Info("publishing exports", zap.String("stream", publisher.ExportStream))
		cl = append(cl, pub.Close)
		opts = append(opts, pipeline.WithPublisher(pub))
	}

	return &runnerDeps{
		runner:  pipeline.NewRunner(client, cfg.Files.Raw, opts...),
		db:      db,
		closers: cl,
	}, nil
}
