// Package engine implements the job-dispatch core described in SPEC_FULL.md
// §4: the task queue, job store, assignment coordinator, fault detector,
// result aggregator, progress feed, and cancellation. Every public method
// here acquires Engine.mu, performs its state transition, and releases it
// before doing any I/O — audit writes happen from a separate goroutine
// after the lock is released (SPEC_FULL.md §5).
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
)

// Engine owns every Job, the shared TaskQueue, and the fault-detector
// lifecycle. It replaces the module-level mutable tables the original
// prototype relied on (SPEC_FULL.md §9): callers construct one Engine and
// thread it explicitly into every HTTP handler and into the periodic
// sweep.
type Engine struct {
	mu sync.Mutex

	clock            clockwork.Clock
	heartbeatTimeout time.Duration
	sweepInterval    time.Duration

	jobs  map[string]*Job
	queue *taskQueue

	audit  audit.Adapter
	logger *slog.Logger

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New constructs an Engine. heartbeatTimeout and sweepInterval follow
// spec.md §5's SWEEP_INTERVAL <= HEARTBEAT_TIMEOUT/2 rule; callers should
// validate that via config.GatewayConfig.Validate before calling New.
func New(clock clockwork.Clock, heartbeatTimeout, sweepInterval time.Duration, auditAdapter audit.Adapter, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		clock:            clock,
		heartbeatTimeout: heartbeatTimeout,
		sweepInterval:    sweepInterval,
		jobs:             make(map[string]*Job),
		queue:            newTaskQueue(),
		audit:            auditAdapter,
		logger:           logger.With("component", "engine"),
	}
}

// Delete removes a job and its progress feed, and — since the cancellation
// flag lives on the Job itself — its cancellation state along with it
// (spec.md §9's note on cancellation-set lifetime).
func (e *Engine) Delete(customerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.jobs, customerID)
}

// fireAudit runs fn on its own goroutine, outside the engine lock, so a
// slow or failing audit write never stalls a request holding e.mu (spec.md
// §5's suspension-points rule, §7's AuditFailure policy).
func (e *Engine) fireAudit(fn func()) {
	if e.audit == nil {
		return
	}
	go fn()
}
