package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
	"github.com/fortuna/nbaquant/internal/publisher"
)

// ErrNoFetcher is returned when a run needs to fetch but has no client.
var ErrNoFetcher = errors.New("no stats client configured")

// Runner chains fetch, save, export and publish.
type Runner struct {
	fetcher   Fetcher
	rawPath   string
	sinks     []export.Sink
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	// runs share the raw file and the spreadsheet
	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithSinks sets where exported rows are written, in order.
func WithSinks(sinks ...export.Sink) Option {
	return func(r *Runner) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithPublisher announces each finished export.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) {
		r.publisher = p
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a runner that saves raw responses to rawPath.
func NewRunner(fetcher Fetcher, rawPath string, opts ...Option) *Runner {
	r := &Runner{
		fetcher: fetcher,
		rawPath: rawPath,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SinkNames lists the configured sinks in write order.
func (r *Runner) SinkNames() []string {
	names := make([]string, len(r.sinks))
	for i, s := range r.sinks {
		names[i] = s.Name()
	}
	return names
}

// Run executes spec, reporting progress via reporter if provided. Runs on the
// same Runner never overlap.
func (r *Runner) Run(ctx context.Context, spec Spec, reporter Reporter) (*Result, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := &Result{Rows: []export.Row{}, Sinks: []string{}, DryRun: spec.DryRun}

	var body []byte
	if !spec.SkipFetch {
		if r.fetcher == nil {
			return nil, r.fail(reporter, StepFetch, ErrNoFetcher)
		}
		reporter.OnStepStart(StepFetch)
		result.SourceURL = r.fetcher.StatsURL(spec.Query)

		var err error
		body, err = r.fetcher.FetchStats(ctx, spec.Query)
		if err != nil {
			return nil, r.fail(reporter, StepFetch, err)
		}
		reporter.OnProgress(fmt.Sprintf("fetched %d bytes", len(body)), 1, 1)
	}

	if spec.DryRun {
		reporter.OnStepStart(StepExport)
		rows, err := r.dryRunRows(body, spec.SkipFetch)
		if err != nil {
			return nil, r.fail(reporter, StepExport, err)
		}
		result.Rows = rows
		return r.complete(reporter, result), nil
	}

	if !spec.SkipFetch {
		reporter.OnStepStart(StepSave)
		if err := balldontlie.Save(r.rawPath, body); err != nil {
			return nil, r.fail(reporter, StepSave, err)
		}
	}
	result.RawPath = r.rawPath

	if err := ctx.Err(); err != nil {
		return nil, r.fail(reporter, StepExport, err)
	}

	// A skipped fetch exports a file of unknown origin.
	var info export.RunInfo
	if !spec.SkipFetch {
		info = export.RunInfo{
			SourceURL: result.SourceURL,
			Seasons:   spec.Query.Seasons,
			PlayerIDs: spec.Query.PlayerIDs,
		}
	}

	reporter.OnStepStart(StepExport)
	rows, err := export.Export(export.WithRunInfo(ctx, info), r.rawPath, r.sinks...)
	if err != nil {
		return nil, r.fail(reporter, StepExport, err)
	}
	result.Rows = rows
	result.Sinks = r.SinkNames()
	reporter.OnProgress(fmt.Sprintf("exported %d rows", len(rows)), len(r.sinks), len(r.sinks))

	if r.publisher != nil {
		reporter.OnStepStart(StepPublish)
		err := r.publisher.PublishExport(ctx, publisher.ExportEvent{
			SourceURL: result.SourceURL,
			RawPath:   result.RawPath,
			Sinks:     result.Sinks,
			Rows:      result.Rows,
			Finished:  r.now(),
		})
		if err != nil {
			// Sinks are already written; a lost notification does not fail the run.
			r.logger.Warn("publishing export event failed", zap.Error(err))
			reporter.OnProgress("publish failed: "+err.Error(), 0, 1)
		}
	}

	return r.complete(reporter, result), nil
}

func (r *Runner) dryRunRows(body []byte, fromDisk bool) ([]export.Row, error) {
	var (
		env *balldontlie.Envelope
		err error
	)
	if fromDisk {
		env, err = export.ReadEnvelope(r.rawPath)
	} else {
		env, err = export.DecodeEnvelope(bytes.NewReader(body))
	}
	if err != nil {
		return nil, err
	}
	return export.Rows(env), nil
}

func (r *Runner) complete(reporter Reporter, result *Result) *Result {
	result.Finished = r.now()
	r.logger.Info("pipeline run complete",
		zap.Int("rows", len(result.Rows)),
		zap.Strings("sinks", result.Sinks),
		zap.Bool("dry_run", result.DryRun),
	)
	reporter.OnComplete(result)
	return result
}

func (r *Runner) fail(reporter Reporter, step Step, err error) error {
	err = fmt.Errorf("%s: %w", step, err)
	r.logger.Error("pipeline step failed", zap.String("step", string(step)), zap.Error(err))
	reporter.OnError(step, err)
	return err
}
