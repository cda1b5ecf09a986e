package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fortuna/nbaquant/internal/pipeline"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Run(ctx context.Context, spec pipeline.Spec, reporter pipeline.Reporter) (*pipeline.Result, error)
}

// Config holds scheduler configuration
type Config struct {
	// Interval between runs; 0 disables periodic refresh.
	Interval   time.Duration
	RunOnStart bool
	MaxRetries int
	RetryDelay time.Duration
	Spec       pipeline.Spec
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// Orchestrator re-runs the export pipeline on a fixed interval.
type Orchestrator struct {
	runner   Runner
	config   *Config
	logger   *zap.Logger
	onResult func(*pipeline.Result)

	mu                sync.Mutex
	cancel            context.CancelFunc
	lastRun           time.Time
	lastErr           error
	consecutiveErrors int
}

// NewOrchestrator creates a new scheduler orchestrator. onResult, when not
// nil, is called after every successful run.
func NewOrchestrator(runner Runner, config *Config, logger *zap.Logger, onResult func(*pipeline.Result)) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		runner:   runner,
		config:   config,
		logger:   logger.Named("scheduler"),
		onResult: onResult,
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	if o.config.Interval <= 0 {
		o.logger.Info("periodic refresh disabled")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()

	o.logger.Info("periodic refresh started", zap.Duration("interval", o.config.Interval))

	ticker := time.NewTicker(o.config.Interval)
	defer ticker.Stop()

	if o.config.RunOnStart {
		o.runWithRetry(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("periodic refresh stopped")
			return
		case <-ticker.C:
			o.runWithRetry(ctx)
		}
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *Orchestrator) runWithRetry(ctx context.Context) {
	var (
		result *pipeline.Result
		err    error
	)

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		result, err = o.runner.Run(ctx, o.config.Spec, pipeline.LogReporter{Logger: o.logger})
		if err == nil {
			break
		}

		o.logger.Warn("refresh attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", o.config.MaxRetries),
			zap.Error(err),
		)

		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.mu.Lock()
	o.lastRun = time.Now()
	o.lastErr = err
	if err != nil {
		o.consecutiveErrors++
	} else {
		o.consecutiveErrors = 0
	}
	failures := o.consecutiveErrors
	o.mu.Unlock()

	if err != nil {
		o.logger.Error("refresh failed", zap.Int("consecutive_errors", failures), zap.Error(err))
		return
	}
	if o.onResult != nil {
		o.onResult(result)
	}
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"refresh_enabled":    o.config.Interval > 0,
		"refresh_interval":   o.config.Interval.String(),
		"consecutive_errors": o.consecutiveErrors,
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
