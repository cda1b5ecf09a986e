package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/store"
)

type runSaver interface {
	SaveRun(ctx context.Context, run *store.ExportRun, rows []export.Row) (int64, error)
}

// ExportSink writes rows to Postgres as one export run per Write. Run
// metadata comes from export.RunInfoFromContext.
type ExportSink struct {
	saver  runSaver
	logger *zap.Logger

	lastRunID int64
}

// NewExportSink returns an export.Sink backed by repo.
func NewExportSink(repo *ExportRepository, logger *zap.Logger) *ExportSink {
	return newExportSink(repo, logger)
}

func newExportSink(saver runSaver, logger *zap.Logger) *ExportSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportSink{saver: saver, logger: logger}
}

func (s *ExportSink) Name() string { return "postgres" }

func (s *ExportSink) Write(ctx context.Context, rows []export.Row) error {
	info := export.RunInfoFromContext(ctx)
	run := &store.ExportRun{
		SourceURL: info.SourceURL,
		Seasons:   toInt64s(info.Seasons),
		PlayerIDs: toInt64s(info.PlayerIDs),
	}
	id, err := s.saver.SaveRun(ctx, run, rows)
	if err != nil {
		return err
	}
	s.lastRunID = id
	s.logger.Info("stored export run",
		zap.Int64("run_id", id),
		zap.Int("rows", len(rows)),
		zap.String("source_url", info.SourceURL),
	)
	return nil
}

// LastRunID is the ID assigned by the most recent successful Write.
func (s *ExportSink) LastRunID() int64 { return s.lastRunID }

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
