package engine

import (
	"time"

	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

// WorkUnit is a single assignable replica of a job, consumed by one worker
// claim. It carries no shard metadata: the shard index is decided at claim
// time from the job's current assignment count (spec.md §4.3 step 4, §9's
// open question on shard-to-worker binding after rescue).
type WorkUnit struct {
	CustomerID string
	TaskID     string
}

// Job is the aggregate state for one client submission. Every field here
// is guarded by the owning Engine's single mutex; Job itself holds no lock.
type Job struct {
	CustomerID   string
	TaskID       string
	CustomerName string

	Code        []byte
	Requirement []byte

	// DatasetShards[i] belongs to the i-th worker to claim this job, per
	// the split computed once at creation time (spec.md §4.2).
	DatasetShards [][]byte
	NumWorkers    int

	// AssignedWorkers is ordered by claim time; its length is the next
	// shard index to hand out.
	AssignedWorkers []string

	// Heartbeats holds lastBeatTimestamp for every worker that is assigned
	// and has not yet submitted (invariant 2 in spec.md §3).
	Heartbeats map[string]time.Time

	Results     map[string][]byte
	Usage       map[string][]byte
	OutputFiles map[string]map[string][]byte

	// PendingWorkers is advisory only; derive truth from NumWorkers -
	// len(Results) where it matters (spec.md §9 open question).
	PendingWorkers int

	IsCompleted        bool
	IsCancelled        bool
	CompletionNotified bool

	CreatedAt   time.Time
	CompletedAt time.Time

	feed []protocol.ProgressUpdate
}

func newJob(customerID, taskID, customerName string, code, requirement []byte, shards [][]byte, numWorkers int, now time.Time) *Job {
	return &Job{
		CustomerID:      customerID,
		TaskID:          taskID,
		CustomerName:    customerName,
		Code:            code,
		Requirement:     requirement,
		DatasetShards:   shards,
		NumWorkers:      numWorkers,
		AssignedWorkers: make([]string, 0, numWorkers),
		Heartbeats:      make(map[string]time.Time),
		Results:         make(map[string][]byte),
		Usage:           make(map[string][]byte),
		OutputFiles:     make(map[string]map[string][]byte),
		PendingWorkers:  numWorkers,
		CreatedAt:       now,
	}
}

// progressStats returns the current {submitted, total, percentage} triple.
func (j *Job) progressStats() protocol.ProgressStats {
	submitted := len(j.Results)
	total := j.NumWorkers
	pct := 0
	if total > 0 {
		pct = submitted * 100 / total
	}
	return protocol.ProgressStats{Submitted: submitted, Total: total, Percentage: pct}
}

// splitDataset divides data into n contiguous, near-equal shards; shard i
// is [i*chunk, min((i+1)*chunk, L)). chunk = ceil(L/n). Per spec.md §4.2,
// the last shard absorbs the remainder (and may be shorter, or empty when
// the data doesn't divide evenly into n non-empty parts).
func splitDataset(data []byte, n int) [][]byte {
	shards := make([][]byte, n)
	l := len(data)
	if l == 0 {
		for i := range shards {
			shards[i] = []byte{}
		}
		return shards
	}

	chunk := (l + n - 1) / n
	for i := 0; i < n; i++ {
		start := i * chunk
		if start > l {
			start = l
		}
		end := start + chunk
		if end > l {
			end = l
		}
		shard := make([]byte, end-start)
		copy(shard, data[start:end])
		shards[i] = shard
	}
	return shards
}
