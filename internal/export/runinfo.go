package export

import "context"

// RunInfo describes the query that produced the rows handed to a sink.
type RunInfo struct {
	SourceURL string
	Seasons   []int
	PlayerIDs []int
}

type runInfoKey struct{}

// WithRunInfo attaches info to ctx for sinks that record provenance.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext returns the RunInfo set by WithRunInfo. A zero RunInfo
// means the source of the rows is unknown, e.g. a file already on disk.
func RunInfoFromContext(ctx context.Context) RunInfo {
	info, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return info
}
