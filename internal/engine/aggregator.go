package engine

import (
	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
)

// SubmitOutcome labels the result of a submission attempt.
type SubmitOutcome int

const (
	SubmitOK SubmitOutcome = iota
	SubmitUnknownJob
	SubmitCancelled
	SubmitUnauthorized
	SubmitDuplicate
)

// SubmitResult is what ResultAggregator.Submit hands back to the
// worker-facing HTTP handler.
type SubmitResult struct {
	Outcome        SubmitOutcome
	PendingWorkers int
	IsCompleted    bool
}

// Submit implements the ResultAggregator described in spec.md §4.4. It
// checks the four preconditions in order (job exists, not cancelled,
// worker assigned, worker hasn't already submitted), then records the
// result/usage/output files, recomputes completion, and fires the
// best-effort audit write.
func (e *Engine) Submit(workerID, customerID string, result, usage []byte, outputFiles map[string][]byte) SubmitResult {
	e.mu.Lock()

	job, ok := e.jobs[customerID]
	if !ok {
		e.mu.Unlock()
		return SubmitResult{Outcome: SubmitUnknownJob}
	}
	if job.IsCancelled {
		e.mu.Unlock()
		return SubmitResult{Outcome: SubmitCancelled}
	}
	if !isAssigned(job, workerID) {
		e.mu.Unlock()
		return SubmitResult{Outcome: SubmitUnauthorized}
	}
	if _, already := job.Results[workerID]; already {
		e.mu.Unlock()
		return SubmitResult{Outcome: SubmitDuplicate}
	}

	job.Results[workerID] = result
	job.Usage[workerID] = usage
	job.OutputFiles[workerID] = outputFiles
	delete(job.Heartbeats, workerID)

	if job.PendingWorkers > 0 {
		job.PendingWorkers--
	}

	stats := job.progressStats()
	e.appendProgress(job, "worker "+workerID+" submitted result", "progress", false, stats)

	if len(job.Results) == job.NumWorkers && len(job.AssignedWorkers) == job.NumWorkers {
		job.IsCompleted = true
		job.CompletedAt = e.clock.Now()
		if !job.CompletionNotified {
			e.appendProgress(job, "job completed", "completed", true, stats)
			job.CompletionNotified = true
		}
	}

	pending := job.PendingWorkers
	completed := job.IsCompleted
	e.mu.Unlock()

	e.fireAudit(func() {
		rec := parseUsage(usage)
		e.audit.RecordSubmission(audit.SubmissionRecord{
			CustomerID:  customerID,
			WorkerID:    workerID,
			Usage:       rec,
			SubmittedAt: e.clock.Now(),
		})
		e.audit.AdjustCounter(workerID, audit.TaskCompleted, 1)
		e.audit.AdjustCounter(workerID, audit.TaskRunning, -1)
		e.audit.AdjustCounter(workerID, audit.TaskPending, -1)
	})

	e.logger.Info("result submitted", "customerId", customerID, "workerId", workerID, "pendingWorkers", pending, "isCompleted", completed)
	return SubmitResult{Outcome: SubmitOK, PendingWorkers: pending, IsCompleted: completed}
}

func isAssigned(job *Job, workerID string) bool {
	for _, w := range job.AssignedWorkers {
		if w == workerID {
			return true
		}
	}
	return false
}
