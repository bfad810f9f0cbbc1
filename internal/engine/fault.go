package engine

import (
	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
)

// Heartbeat implements spec.md §6's heartbeat operation: refreshes
// heartbeats[workerId] to now and returns ok=true, or reports ok=false
// when the job is cancelled or the worker isn't currently assigned.
func (e *Engine) Heartbeat(workerID, customerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok || job.IsCancelled {
		return false
	}
	if !isAssigned(job, workerID) {
		return false
	}
	if _, submitted := job.Results[workerID]; submitted {
		return false
	}

	job.Heartbeats[workerID] = e.clock.Now()
	return true
}

// IsCancelled answers the worker-facing cancellation poll (spec.md §6).
func (e *Engine) IsCancelled(customerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok {
		return false
	}
	return job.IsCancelled
}

// StartFaultDetector launches the periodic sweep goroutine. The
// ticker-driven loop with a stop channel mirrors the teacher's
// scheduler.go processJobQueue/StopQueueProcessor lifecycle — same shape,
// repurposed here to drive stall detection instead of push-queue draining.
func (e *Engine) StartFaultDetector() {
	e.stopSweep = make(chan struct{})
	e.sweepDone = make(chan struct{})

	go func() {
		defer close(e.sweepDone)

		ticker := e.clock.NewTicker(e.sweepInterval)
		defer ticker.Stop()

		e.logger.Info("fault detector started", "sweepInterval", e.sweepInterval, "heartbeatTimeout", e.heartbeatTimeout)
		for {
			select {
			case <-e.stopSweep:
				e.logger.Info("fault detector stopped")
				return
			case <-ticker.Chan():
				e.sweepOnce()
			}
		}
	}()
}

// StopFaultDetector stops the sweep goroutine and waits for it to exit.
func (e *Engine) StopFaultDetector() {
	if e.stopSweep == nil {
		return
	}
	close(e.stopSweep)
	<-e.sweepDone
}

// sweepOnce walks every job that is neither completed nor cancelled and
// reclaims any shard whose heartbeat has gone stale (spec.md §4.5).
func (e *Engine) sweepOnce() {
	e.mu.Lock()

	type rescue struct {
		customerID, taskID, workerID string
	}
	var rescues []rescue

	now := e.clock.Now()
	for _, job := range e.jobs {
		if job.IsCompleted || job.IsCancelled {
			continue
		}
		for workerID, lastBeat := range job.Heartbeats {
			if now.Sub(lastBeat) <= e.heartbeatTimeout {
				continue
			}

			job.AssignedWorkers = removeWorker(job.AssignedWorkers, workerID)
			delete(job.Heartbeats, workerID)
			delete(job.Results, workerID)
			delete(job.Usage, workerID)
			delete(job.OutputFiles, workerID)
			// PendingWorkers is left untouched: it already reflects the
			// outstanding slot (spec.md §4.5 step 2, §9 open question).

			e.queue.enqueue(WorkUnit{CustomerID: job.CustomerID, TaskID: job.TaskID})
			e.appendProgress(job, "worker "+workerID+" timed out; reassigning", "progress", false, job.progressStats())

			rescues = append(rescues, rescue{job.CustomerID, job.TaskID, workerID})
		}
	}
	e.mu.Unlock()

	if len(rescues) == 0 {
		return
	}
	for _, r := range rescues {
		e.logger.Warn("worker timed out, reassigning", "customerId", r.customerID, "taskId", r.taskID, "workerId", r.workerID)
	}
	e.fireAudit(func() {
		for _, r := range rescues {
			e.audit.AdjustCounter(r.workerID, audit.TaskFailed, 1)
			e.audit.AdjustCounter(r.workerID, audit.TaskRunning, -1)
			e.audit.AdjustCounter(r.workerID, audit.TaskPending, -1)
		}
	})
}

func removeWorker(workers []string, workerID string) []string {
	out := workers[:0]
	for _, w := range workers {
		if w != workerID {
			out = append(out, w)
		}
	}
	return out
}
