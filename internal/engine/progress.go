package engine

import (
	"fmt"
	"time"

	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

// progressRetention is the age window spec.md §4.6 grants non-completion
// updates before drain() may discard them.
const progressRetention = 60 * time.Second

// appendProgress records one update on job's feed. Caller must hold e.mu.
func (e *Engine) appendProgress(job *Job, text, status string, isCompletion bool, stats protocol.ProgressStats) {
	job.feed = append(job.feed, protocol.ProgressUpdate{
		CustomerID:   job.CustomerID,
		Text:         text,
		Timestamp:    e.clock.Now(),
		Status:       status,
		IsCompletion: isCompletion,
		Progress:     &stats,
	})
}

// DrainUpdates returns the customer's current feed buffer and retains only
// entries that are sticky-completion or still within the retention window
// (spec.md §4.6). The authoritative cancellation signal remains the
// isCancelled flag from Status, not this feed.
func (e *Engine) DrainUpdates(customerID string) (protocol.UpdatesResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[customerID]
	if !ok {
		return protocol.UpdatesResponse{}, fmt.Errorf("%w: %s", ErrUnknownJob, customerID)
	}

	now := e.clock.Now()
	out := make([]protocol.ProgressUpdate, len(job.feed))
	copy(out, job.feed)

	kept := job.feed[:0]
	for _, u := range job.feed {
		if u.Status == "completed" || now.Sub(u.Timestamp) < progressRetention {
			kept = append(kept, u)
		}
	}
	job.feed = kept

	return protocol.UpdatesResponse{
		Updates:     out,
		Progress:    job.progressStats(),
		IsCompleted: job.IsCompleted,
	}, nil
}
