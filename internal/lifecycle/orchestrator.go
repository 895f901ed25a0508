package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/observability"
)

// Orchestrator owns the recurring close+transfer timer. Each tick runs the
// close job before the transfer job so a ticket is never both closed and
// transferred in one cycle. The running flag is exclusive per timer: a tick
// that fires while the previous tick's work is still outstanding is skipped
// entirely, never queued.
type Orchestrator struct {
	closeJob    *CloseJob
	transferJob *TransferJob
	interval    time.Duration
	metrics     *observability.Metrics
	logger      *zap.Logger

	running atomic.Bool
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewOrchestrator creates the orchestrator in the Idle state.
func NewOrchestrator(closeJob *CloseJob, transferJob *TransferJob, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		closeJob:    closeJob,
		transferJob: transferJob,
		interval:    interval,
		metrics:     metrics,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Start launches the sweep timer. The timer goroutine lives until Stop or
// context cancellation.
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info("lifecycle sweep timer started", zap.Duration("interval", o.interval))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()
		for {
			select {
			case <-o.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.dispatch(ctx)
			}
		}
	}()
}

// dispatch starts one sweep unless the previous one is still in flight.
func (o *Orchestrator) dispatch(ctx context.Context) {
	if !o.running.CompareAndSwap(false, true) {
		o.metrics.RecordEngine("sweeps_skipped", 1)
		o.logger.Warn("previous sweep still running; tick skipped")
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("lifecycle sweep panicked", zap.Any("panic", r))
			}
		}()
		o.Sweep(ctx)
	}()
}

// Sweep runs one close-then-transfer cycle. A failure in one job is logged
// and does not prevent the other from running; a panic is recovered in
// dispatch and the running flag cleared, so the next tick dispatches
// normally.
func (o *Orchestrator) Sweep(ctx context.Context) {
	o.metrics.RecordEngine("sweeps_run", 1)

	if err := o.closeJob.Run(ctx); err != nil {
		o.logger.Error("inactivity close pass failed", zap.Error(err))
	}
	if err := o.transferJob.Run(ctx); err != nil {
		o.logger.Error("inactivity transfer pass failed", zap.Error(err))
	}
}

// IsRunning reports whether a sweep is currently in flight.
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

// Stop prevents the next tick from starting and waits for in-flight work to
// finish. A sweep already running completes; nothing is canceled mid-tick.
func (o *Orchestrator) Stop() {
	o.once.Do(func() {
		close(o.stop)
	})
	o.wg.Wait()
	o.logger.Info("lifecycle sweep timer stopped")
}
