package engine

import (
	"fmt"
	"time"
)

// Cancel implements spec.md §4.7: marks the job cancelled, drains its
// queued WorkUnits, clears heartbeats (without touching already-submitted
// results), and emits a cancelled update. After this returns, claims
// targeting the job return cancelled, submissions are rejected, heartbeats
// no longer refresh state, and downloads are refused.
func (e *Engine) Cancel(customerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, customerID)
	}
	if job.IsCompleted || job.IsCancelled {
		// isCompleted and isCancelled are mutually exclusive and neither
		// ever reverts (spec.md §3 invariant 3, §8 property 3).
		return nil
	}

	e.queue.drop(customerID)

	job.PendingWorkers = 0
	job.IsCancelled = true
	job.Heartbeats = make(map[string]time.Time)

	e.appendProgress(job, "job cancelled", "cancelled", false, job.progressStats())

	e.logger.Info("job cancelled", "customerId", customerID)
	return nil
}
