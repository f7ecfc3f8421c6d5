// Package orchestrator owns the analysis state machine: it validates a
// submission, runs the analysis call and then the insight call, and settles
// into Success or Error. At most one run is in flight per Orchestrator.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/speedx-dev/speedx/internal/metrics"
	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/platform/errs"
	"github.com/speedx-dev/speedx/internal/platform/requestid"
)

// ErrBusy is returned by Submit while a run is Loading.
var ErrBusy = errors.New("an analysis is already in progress")

// AnalysisProvider measures a website.
type AnalysisProvider interface {
	Analyze(ctx context.Context, targetURL string) (*model.WebsiteMetrics, error)
}

// InsightProvider turns a metrics summary into insight lines.
type InsightProvider interface {
	Insights(ctx context.Context, summary string) ([]string, error)
}

// Recorder persists settled runs.
type Recorder interface {
	Record(ctx context.Context, s Snapshot) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier delivers error notifications to n.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithRecorder persists every settled run to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// Orchestrator sequences validation, analysis and insight generation and is
// the only writer of its state.
type Orchestrator struct {
	analysis AnalysisProvider
	insight  InsightProvider
	notifier Notifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state Snapshot
	// run identifies the current Loading run; completions for any other run are discarded.
	run uint64
}

// New returns an Idle Orchestrator.
func New(analysis AnalysisProvider, insight InsightProvider, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analysis: analysis,
		insight:  insight,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.state.UpdatedAt = o.now()
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Submit starts an analysis of text. A submission that fails validation is
// reported to the Notifier and returned without leaving the current state.
// While a run is Loading, Submit returns ErrBusy and changes nothing.
//
// On acceptance the returned channel is closed once the run settles. The run
// outlives ctx cancellation but keeps its values (request ID).
func (o *Orchestrator) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	logger := o.logger.With("url", text, "request_id", requestid.FromContext(ctx))

	o.mu.Lock()
	if o.state.Status == Loading {
		o.mu.Unlock()
		logger.Info("submission rejected", "reason", "busy")
		return nil, ErrBusy
	}

	if err := Validate(text); err != nil {
		o.mu.Unlock()
		var appErr *errs.AppError
		if errors.As(err, &appErr) {
			o.notify(appErr.Kind)
		}
		logger.Info("submission rejected", "error", err)
		return nil, err
	}

	o.run++
	run := o.run
	o.state.Status = Loading
	o.state.URL = text
	o.state.Err = nil
	o.state.Measured = false
	o.state.UpdatedAt = o.now()
	o.mu.Unlock()

	logger.Info("analysis started", "run", run)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.execute(context.WithoutCancel(ctx), logger.With("run", run), run, text)
	}()
	return done, nil
}

// Reset returns to Idle and drops all data. A run still in flight is not
// cancelled; its result is discarded when it arrives.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.run++
	o.state = Snapshot{Status: Idle, UpdatedAt: o.now()}
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, run uint64, text string) {
	var result *model.WebsiteMetrics
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("analysis panicked", "panic", rec)
			o.settle(ctx, logger, run, text, result, nil, errs.New(errs.Client, fmt.Errorf("panic: %v", rec)))
		}
	}()

	result, err := o.analysis.Analyze(ctx, text)
	if err != nil {
		result = nil
		o.settle(ctx, logger, run, text, nil, nil, asAppError(err, errs.AnalysisUnexpected))
		return
	}

	lines, err := o.insight.Insights(ctx, metrics.Summary(result))
	if err != nil {
		o.settle(ctx, logger, run, text, result, nil, asAppError(err, errs.InsightService))
		return
	}

	o.settle(ctx, logger, run, text, result, lines, nil)
}

// settle applies a run's outcome if that run is still the current Loading
// run. result is nil when the analysis call itself failed.
func (o *Orchestrator) settle(
	ctx context.Context,
	logger *slog.Logger,
	run uint64,
	text string,
	result *model.WebsiteMetrics,
	lines []string,
	failure *errs.AppError,
) {
	o.mu.Lock()
	if run != o.run || o.state.Status != Loading {
		o.mu.Unlock()
		logger.Info("discarding stale result")
		return
	}

	o.state.Measured = result != nil
	if result != nil {
		o.state.Metrics = result.Clone()
		o.state.MetricsURL = text
		o.state.Insights = lines
	}
	if failure != nil {
		o.state.Status = Error
		o.state.Err = failure
	} else {
		o.state.Status = Success
	}
	o.state.UpdatedAt = o.now()
	snap := o.state.clone()
	o.mu.Unlock()

	if failure != nil {
		o.notify(failure.Kind)
		logger.Error("analysis failed", "kind", failure.Kind.String(), "error", failure, "partial", result != nil)
	} else {
		logger.Info("analysis complete", "insights", len(lines))
	}

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, snap); err != nil {
			logger.Error("failed to record analysis", "error", err)
		}
	}
}

func (o *Orchestrator) notify(kind errs.Kind) {
	if o.notifier != nil {
		o.notifier.Notify(NotificationFor(kind))
	}
}

// asAppError keeps a classified error as is and files anything else under fallback.
func asAppError(err error, fallback errs.Kind) *errs.AppError {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errs.New(fallback, err)
}
