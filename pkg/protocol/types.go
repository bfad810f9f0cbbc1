// Package protocol holds the wire types shared between the gateway's HTTP
// API and its clients/workers. Nothing here owns behavior; it is the JSON
// (and, on the claim path, base64-in-JSON) shape of the engine's contracts.
package protocol

import "time"

// SubmitJobResponse answers a successful job submission.
type SubmitJobResponse struct {
	CustomerID string `json:"customerId"`
	TaskID     string `json:"taskId"`
	NumWorkers int    `json:"numWorkers"`
}

// ProgressStats is the submitted/total/percentage triple attached to most
// progress and status responses.
type ProgressStats struct {
	Submitted  int `json:"submitted"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ProgressUpdate is one entry of a customer's progress feed.
type ProgressUpdate struct {
	CustomerID   string         `json:"customerId"`
	Text         string         `json:"text"`
	Timestamp    time.Time      `json:"timestamp"`
	Status       string         `json:"status"` // progress | completed | cancelled
	IsCompletion bool           `json:"isCompletion,omitempty"`
	Progress     *ProgressStats `json:"progress,omitempty"`
}

// UpdatesResponse answers the client's poll-updates endpoint.
type UpdatesResponse struct {
	Updates     []ProgressUpdate `json:"updates"`
	Progress    ProgressStats    `json:"progress"`
	IsCompleted bool             `json:"isCompleted"`
}

// StatusResponse answers the client's poll-status endpoint.
type StatusResponse struct {
	Submitted   int  `json:"submitted"`
	Total       int  `json:"total"`
	Percentage  int  `json:"percentage"`
	IsCompleted bool `json:"isCompleted"`
	IsCancelled bool `json:"isCancelled"`
	CanDownload bool `json:"canDownload"`
}

// ClaimResponse answers a successful worker claim. Code/Dataset/Requirement
// round-trip as base64 text because encoding/json base64-encodes []byte
// automatically.
type ClaimResponse struct {
	TaskID       string `json:"taskId"`
	CustomerID   string `json:"customerId"`
	WorkerIndex  int    `json:"workerIndex"`
	TotalWorkers int    `json:"totalWorkers"`
	Code         []byte `json:"code"`
	Dataset      []byte `json:"dataset,omitempty"`
	Requirement  []byte `json:"requirement,omitempty"`
}

// ClaimStatus labels the outcome of a claim attempt. Only ClaimAssigned is
// accompanied by a task payload.
type ClaimStatus string

const (
	ClaimNoWork    ClaimStatus = "no-work"
	ClaimCancelled ClaimStatus = "cancelled"
	ClaimAssigned  ClaimStatus = "assigned"
)

// SubmitResultResponse answers a worker's result submission.
type SubmitResultResponse struct {
	Status         string `json:"status"` // ok | unknown-job | cancelled | unauthorized | duplicate
	PendingWorkers int    `json:"pendingWorkers"`
	IsCompleted    bool   `json:"isCompleted"`
	Message        string `json:"message,omitempty"`
}

// HeartbeatResponse answers a worker's heartbeat.
type HeartbeatResponse struct {
	Ok bool `json:"ok"`
}

// CancellationPollResponse answers a worker's cancellation poll.
type CancellationPollResponse struct {
	Cancel bool `json:"cancel"`
}
