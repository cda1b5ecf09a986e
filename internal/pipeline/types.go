package pipeline

import (
	"context"
	"time"

	"github.com/fortuna/nbaquant/internal/export"
	"github.com/fortuna/nbaquant/internal/ingest/balldontlie"
	"github.com/fortuna/nbaquant/internal/publisher"
)

// Step names one stage of a run.
type Step string

const (
	StepFetch   Step = "fetch"
	StepSave    Step = "save"
	StepExport  Step = "export"
	StepPublish Step = "publish"
)

// Fetcher is the part of the stats client the runner needs.
type Fetcher interface {
	StatsURL(q balldontlie.StatsQuery) string
	FetchStats(ctx context.Context, q balldontlie.StatsQuery) ([]byte, error)
}

// Publisher announces finished exports.
type Publisher interface {
	PublishExport(ctx context.Context, event publisher.ExportEvent) error
}

// Spec describes a single run.
type Spec struct {
	Query balldontlie.StatsQuery
	// SkipFetch exports the raw file already on disk.
	SkipFetch bool
	// DryRun derives rows in memory and writes nothing.
	DryRun bool
}

// Result is what a completed run produced.
type Result struct {
	SourceURL string       `json:"source_url,omitempty"`
	RawPath   string       `json:"raw_path,omitempty"`
	Rows      []export.Row `json:"rows"`
	Sinks     []string     `json:"sinks"`
	DryRun    bool         `json:"dry_run"`
	Finished  time.Time    `json:"finished_at"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnStepStart(step Step)
	OnProgress(message string, current int, total int)
	OnComplete(result *Result)
	OnError(step Step, err error)
}

type nopReporter struct{}

func (nopReporter) OnStepStart(Step) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnComplete(*Result) {}
func (nopReporter) OnError(Step, error) {}
