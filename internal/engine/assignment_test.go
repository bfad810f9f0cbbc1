package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimAssignsDistinctShards(t *testing.T) {
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("0123456789"), nil, 3)
	require.NoError(t, err)

	c1 := e.Claim("w1")
	c2 := e.Claim("w2")
	c3 := e.Claim("w3")

	require.Equal(t, ClaimAssigned, c1.Outcome)
	require.Equal(t, ClaimAssigned, c2.Outcome)
	require.Equal(t, ClaimAssigned, c3.Outcome)

	assert.Equal(t, 0, c1.WorkerIndex)
	assert.Equal(t, 1, c2.WorkerIndex)
	assert.Equal(t, 2, c3.WorkerIndex)
	assert.NotEqual(t, c1.Dataset, c2.Dataset)

	// No more work: a fourth claim finds the queue empty (scenario S1).
	c4 := e.Claim("w4")
	assert.Equal(t, ClaimNoWork, c4.Outcome)
	assert.Equal(t, job.CustomerID, c1.CustomerID)
}

func TestClaimOnEmptyQueue(t *testing.T) {
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	result := e.Claim("w1")
	assert.Equal(t, ClaimNoWork, result.Outcome)
}

func TestClaimReportsCancelled(t *testing.T) {
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("data"), nil, 2)
	require.NoError(t, err)
	require.NoError(t, e.Cancel(job.CustomerID))

	// Cancel drains the job's queued units, so put a leftover unit back by
	// hand to reach the cancelled branch of Claim.
	e.queue.enqueue(WorkUnit{CustomerID: job.CustomerID, TaskID: job.TaskID})

	result := e.Claim("w1")
	assert.Equal(t, ClaimCancelled, result.Outcome)
}

func TestClaimOfVanishedJobIsNoWork(t *testing.T) {
	// Scenario S6: a WorkUnit outlives its Job (e.g. deleted between
	// enqueue and claim). Claim must not panic and must report no-work.
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("data"), nil, 1)
	require.NoError(t, err)

	e.Delete(job.CustomerID)

	result := e.Claim("w1")
	assert.Equal(t, ClaimNoWork, result.Outcome)
}

func TestClaimWorkerCanClaimMultipleShardsOfSameJob(t *testing.T) {
	e, _ := newTestEngine(10*time.Second, 5*time.Second)

	job, err := e.CreateJob("alice", []byte("code"), []byte("0123456789"), nil, 2)
	require.NoError(t, err)

	c1 := e.Claim("w1")
	c2 := e.Claim("w1")

	require.Equal(t, ClaimAssigned, c1.Outcome)
	require.Equal(t, ClaimAssigned, c2.Outcome)
	assert.Equal(t, 0, c1.WorkerIndex)
	assert.Equal(t, 1, c2.WorkerIndex)
	assert.Equal(t, job.CustomerID, c2.CustomerID)
}
