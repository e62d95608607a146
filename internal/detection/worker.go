package detection

import (
	"context"
	"strconv"
	"time"

	"github.com/richxcame/postguard/pkg/telemetry"
	"go.uber.org/zap"
)

// Runner executes one detection pass
type Runner interface {
	RunPass(ctx context.Context) (int, error)
}

// ErrorReporter receives pass errors
type ErrorReporter func(err error, pass uint64)

// Worker runs detection passes on a fixed interval
type Worker struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
	report   ErrorReporter
	done     chan struct{}
	passes   uint64
}

// NewWorker creates a new detection worker. Pass errors go to Sentry unless
// a reporter is given.
func NewWorker(runner Runner, interval time.Duration, logger *zap.Logger, reporter ...ErrorReporter) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}

	report := func(err error, pass uint64) {
		telemetry.CaptureError(err, "detection-worker", map[string]string{
			"pass": strconv.FormatUint(pass, 10),
		})
	}
	if len(reporter) > 0 && reporter[0] != nil {
		report = reporter[0]
	}

	return &Worker{
		runner:   runner,
		interval: interval,
		logger:   logger,
		report:   report,
		done:     make(chan struct{}),
	}
}

// Start runs a pass immediately and then on every tick until ctx is canceled
// or Stop is called. It blocks.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting detection worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Detection worker stopped", zap.String("reason", "context canceled"))
			return
		case <-w.done:
			w.logger.Info("Detection worker stopped")
			return
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

// Stop signals Start to return. It must be called at most once.
func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runPass(ctx context.Context) {
	w.passes++

	resolved, err := w.runner.RunPass(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("Detection pass failed",
			zap.Uint64("pass", w.passes),
			zap.Int("resolved", resolved),
			zap.Error(err),
		)
		w.report(err, w.passes)
		return
	}

	if resolved > 0 {
		w.logger.Info("Detection pass resolved posts", zap.Int("resolved", resolved))
	}
}
