package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/audit"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

// CreateJob allocates a Job, splits the dataset into numWorkers shards
// (spec.md §4.2), emits numWorkers WorkUnits into the TaskQueue, and seeds
// the progress feed with a "queued" update. customerID and taskID are
// generated here, in the teacher's preference for opaque generated IDs
// over caller-supplied ones.
func (e *Engine) CreateJob(customerName string, code, dataset, requirement []byte, numWorkers int) (*Job, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("%w: numWorkers must be >= 1, got %d", ErrValidation, numWorkers)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}

	customerID := uuid.NewString()
	taskID := uuid.NewString()
	shards := splitDataset(dataset, numWorkers)

	e.mu.Lock()
	now := e.clock.Now()
	job := newJob(customerID, taskID, customerName, code, requirement, shards, numWorkers, now)
	e.jobs[customerID] = job

	for i := 0; i < numWorkers; i++ {
		e.queue.enqueue(WorkUnit{CustomerID: customerID, TaskID: taskID})
	}

	e.appendProgress(job, "queued", "progress", false, job.progressStats())
	e.mu.Unlock()

	e.fireAudit(func() {
		e.audit.RecordJob(audit.JobRecord{
			CustomerID:   customerID,
			TaskID:       taskID,
			CustomerName: customerName,
			Code:         code,
			Dataset:      dataset,
			Requirement:  requirement,
			NumWorkers:   numWorkers,
			CreatedAt:    now,
		})
	})

	e.logger.Info("job created", "customerId", customerID, "taskId", taskID, "numWorkers", numWorkers)
	return job, nil
}

// Status returns the {submitted, total, percentage, isCompleted,
// isCancelled, canDownload} view spec.md §6 requires of the poll-status
// endpoint.
func (e *Engine) Status(customerID string) (protocol.StatusResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok {
		return protocol.StatusResponse{}, fmt.Errorf("%w: %s", ErrUnknownJob, customerID)
	}

	stats := job.progressStats()
	return protocol.StatusResponse{
		Submitted:   stats.Submitted,
		Total:       stats.Total,
		Percentage:  stats.Percentage,
		IsCompleted: job.IsCompleted,
		IsCancelled: job.IsCancelled,
		CanDownload: job.IsCompleted && !job.IsCancelled,
	}, nil
}

// Snapshot returns a defensive copy of job state for the download handler
// and for tests. It does not mutate anything.
func (e *Engine) Snapshot(customerID string) (*Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, customerID)
	}

	copyJob := *job
	copyJob.AssignedWorkers = append([]string(nil), job.AssignedWorkers...)
	copyJob.Heartbeats = cloneTimeMap(job.Heartbeats)
	copyJob.Results = cloneByteMap(job.Results)
	copyJob.Usage = cloneByteMap(job.Usage)
	copyJob.OutputFiles = make(map[string]map[string][]byte, len(job.OutputFiles))
	for w, files := range job.OutputFiles {
		copyJob.OutputFiles[w] = cloneByteMap(files)
	}
	return &copyJob, nil
}
