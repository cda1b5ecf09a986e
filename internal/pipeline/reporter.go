package pipeline

import "go.uber.org/zap"

// LogReporter writes lifecycle callbacks to a zap logger.
type LogReporter struct {
	Logger *zap.Logger
}

func (l LogReporter) OnStepStart(step Step) {
	l.Logger.Info("step started", zap.String("step", string(step)))
}

func (l LogReporter) OnProgress(message string, current int, total int) {
	l.Logger.Debug(message, zap.Int("current", current), zap.Int("total", total))
}

func (l LogReporter) OnComplete(result *Result) {
	l.Logger.Info("run finished", zap.Int("rows", len(result.Rows)), zap.Strings("sinks", result.Sinks))
}

func (l LogReporter) OnError(step Step, err error) {
	l.Logger.Error("step failed", zap.String("step", string(step)), zap.Error(err))
}
