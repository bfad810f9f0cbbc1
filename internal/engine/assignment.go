package engine

import (
	"strconv"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
)

// ClaimOutcome labels the result of a claim attempt.
type ClaimOutcome int

const (
	ClaimNoWork ClaimOutcome = iota
	ClaimCancelled
	ClaimAssigned
)

// ClaimResult is what AssignmentCoordinator.Claim hands back to the
// worker-facing HTTP handler.
type ClaimResult struct {
	Outcome ClaimOutcome

	TaskID       string
	CustomerID   string
	Code         []byte
	Dataset      []byte
	Requirement  []byte
	WorkerIndex  int
	TotalWorkers int
}

// Claim implements the AssignmentCoordinator described in spec.md §4.3.
// It pops one WorkUnit, resolves its Job, and either assigns it to
// workerID or reports why it couldn't (no-work / cancelled). A worker
// claiming the same job twice is allowed — each claim consumes a distinct
// WorkUnit and gets a distinct shard index.
func (e *Engine) Claim(workerID string) ClaimResult {
	e.mu.Lock()

	unit, ok := e.queue.claim()
	if !ok {
		e.mu.Unlock()
		return ClaimResult{Outcome: ClaimNoWork}
	}

	job, ok := e.jobs[unit.CustomerID]
	if !ok {
		// Job vanished between enqueue and claim (e.g. deleted). The unit
		// is stale; drop it and let the caller retry (spec.md §4.3 step 2,
		// scenario S6).
		e.mu.Unlock()
		e.logger.Warn("claimed unit for vanished job", "customerId", unit.CustomerID)
		return ClaimResult{Outcome: ClaimNoWork}
	}

	if job.IsCancelled {
		e.mu.Unlock()
		return ClaimResult{Outcome: ClaimCancelled}
	}

	i := len(job.AssignedWorkers)
	if i >= job.NumWorkers {
		// Race with a rescue that already completed reassignment for every
		// shard; this unit is stale (spec.md §4.3 step 4).
		e.mu.Unlock()
		return ClaimResult{Outcome: ClaimNoWork}
	}

	job.AssignedWorkers = append(job.AssignedWorkers, workerID)
	job.Heartbeats[workerID] = e.clock.Now()

	result := ClaimResult{
		Outcome:      ClaimAssigned,
		TaskID:       job.TaskID,
		CustomerID:   job.CustomerID,
		Code:         job.Code,
		Dataset:      job.DatasetShards[i],
		Requirement:  job.Requirement,
		WorkerIndex:  i,
		TotalWorkers: job.NumWorkers,
	}

	e.appendProgress(job, assignedText(workerID, i), "progress", false, job.progressStats())
	e.mu.Unlock()

	e.fireAudit(func() {
		e.audit.AdjustCounter(workerID, audit.TaskPending, 1)
		e.audit.AdjustCounter(workerID, audit.TaskRunning, 1)
	})

	e.logger.Info("task assigned", "customerId", job.CustomerID, "workerId", workerID, "workerIndex", i)
	return result
}

func assignedText(workerID string, shardIndex int) string {
	return "worker " + workerID + " assigned, shard " + strconv.Itoa(shardIndex)
}
