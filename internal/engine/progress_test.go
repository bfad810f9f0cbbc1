package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainUpdatesReturnsAndRetainsWithinWindow(t *testing.T) {
	e, clock := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("data"), nil, 1)
	require.NoError(t, err)

	first, err := e.DrainUpdates(job.CustomerID)
	require.NoError(t, err)
	assert.Len(t, first.Updates, 1) // the "queued" update from CreateJob

	// A second drain before anything new happened, still within the
	// retention window, returns the same update again.
	clock.Advance(30 * time.Second)
	second, err := e.DrainUpdates(job.CustomerID)
	require.NoError(t, err)
	assert.Len(t, second.Updates, 1)
}

func TestDrainUpdatesExpiresStaleNonCompletionEntries(t *testing.T) {
	e, clock := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("data"), nil, 1)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = e.DrainUpdates(job.CustomerID)
	require.NoError(t, err)

	// The "queued" update has aged out of the 60s retention window.
	third, err := e.DrainUpdates(job.CustomerID)
	require.NoError(t, err)
	assert.Empty(t, third.Updates)
}

func TestDrainUpdatesKeepsCompletionStickyPastRetention(t *testing.T) {
	e, clock := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("data"), nil, 1)
	require.NoError(t, err)
	require.Equal(t, ClaimAssigned, e.Claim("w1").Outcome)
	result := e.Submit("w1", job.CustomerID, []byte("out"), nil, nil)
	require.True(t, result.IsCompleted)

	clock.Advance(5 * time.Minute)
	updates, err := e.DrainUpdates(job.CustomerID)
	require.NoError(t, err)

	var sawCompletion bool
	for _, u := range updates.Updates {
		if u.Status == "completed" {
			sawCompletion = true
		}
	}
	assert.True(t, sawCompletion, "completion update must survive past the retention window")
	assert.True(t, updates.IsCompleted)
}

func TestDrainUpdatesUnknownJob(t *testing.T) {
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	_, err := e.DrainUpdates("no-such-job")
	assert.Error(t, err)
}
