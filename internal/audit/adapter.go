// Package audit holds the external, best-effort collaborators spec.md §6
// sketches as "Persisted audit state": a row per job, a row per worker
// submission, and per-worker counters. None of it sits on the engine's
// critical path — every Adapter method is expected to swallow its own
// errors after logging them (spec.md §7, AuditFailure).
package audit

import "time"

// Counter names the per-worker resource-provider tallies the engine bumps
// around claim/submit/timeout.
type Counter string

const (
	TaskPending   Counter = "taskPending"
	TaskRunning   Counter = "taskRunning"
	TaskCompleted Counter = "taskCompleted"
	TaskFailed    Counter = "taskFailed"
)

// UsageRecord is the parsed form of a worker's usage blob (spec.md §4.4).
type UsageRecord struct {
	CPUPercent            float64
	MemoryMB              float64
	ExecutionTimeSeconds  float64
	ParsedOK              bool
	Raw                   []byte
}

// SubmissionRecord is one row of the "worker_usage_stats" table.
type SubmissionRecord struct {
	CustomerID  string
	WorkerID    string
	Usage       UsageRecord
	SubmittedAt time.Time
}

// JobRecord is one row of the "files" table: the submitted blobs plus
// metadata, written once at job creation.
type JobRecord struct {
	CustomerID   string
	TaskID       string
	CustomerName string
	Code         []byte
	Dataset      []byte
	Requirement  []byte
	NumWorkers   int
	CreatedAt    time.Time
}

// Adapter is the engine's external audit collaborator. Every method is
// fire-and-forget from the caller's perspective: the engine invokes these
// off its own goroutine and never inspects a return value.
type Adapter interface {
	AdjustCounter(workerID string, counter Counter, delta int)
	RecordSubmission(rec SubmissionRecord)
	RecordJob(rec JobRecord)
}
