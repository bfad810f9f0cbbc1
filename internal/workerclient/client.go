// Package workerclient is the reference worker's HTTP client for the
// gateway's worker-facing API (claim/submit/heartbeat/cancellation-poll).
// It is the mirror image of internal/httpapi's worker handlers and is
// grounded in the teacher's Scheduler.executeJobOnWorker: a per-request
// context timeout, a shared *http.Client, and typed error wrapping
// instead of bubbling raw transport errors up.
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

// Client talks to one gateway on behalf of one worker identity.
type Client struct {
	baseURL    string
	workerID   string
	httpClient *http.Client
}

// NewClient constructs a Client. The teacher's Scheduler built a bare
// &http.Client{} and set timeouts per request via context; this does the
// same rather than a single blanket client timeout, since claim/submit
// calls warrant different budgets (claim is cheap, submit may carry a
// large result payload).
func NewClient(baseURL, workerID string) *Client {
	return &Client{
		baseURL:    baseURL,
		workerID:   workerID,
		httpClient: &http.Client{},
	}
}

// claimRequest/ClaimResult mirror internal/httpapi's wire shapes without
// importing that package — workers and the gateway share only
// pkg/protocol, never each other's internals.
type claimRequest struct {
	WorkerID string `json:"workerId"`
}

type ClaimResult struct {
	Status protocol.ClaimStatus `json:"status"`
	protocol.ClaimResponse
}

// Claim calls POST /workers/claim and returns the decoded outcome.
func (c *Client) Claim(ctx context.Context) (ClaimResult, error) {
	var out ClaimResult
	body, err := json.Marshal(claimRequest{WorkerID: c.workerID})
	if err != nil {
		return out, fmt.Errorf("workerclient: marshal claim request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/workers/claim", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("workerclient: build claim request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("workerclient: claim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("workerclient: claim returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("workerclient: decode claim response: %w", err)
	}
	return out, nil
}

// SubmitResult calls POST /workers/submit with the worker's result, usage
// blob, and any output files, carried as multipart form fields the same
// way the submission protocol in spec.md §6 describes.
func (c *Client) SubmitResult(ctx context.Context, customerID string, result, usage []byte, outputFiles map[string][]byte) (protocol.SubmitResultResponse, error) {
	var out protocol.SubmitResultResponse

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("workerId", c.workerID); err != nil {
		return out, fmt.Errorf("workerclient: write workerId field: %w", err)
	}
	if err := mw.WriteField("customerId", customerID); err != nil {
		return out, fmt.Errorf("workerclient: write customerId field: %w", err)
	}
	if err := writeMultipartFile(mw, "result", "result.txt", result); err != nil {
		return out, err
	}
	if err := writeMultipartFile(mw, "usage", "usage.txt", usage); err != nil {
		return out, err
	}
	for name, data := range outputFiles {
		if err := writeMultipartFile(mw, "output_"+name, name, data); err != nil {
			return out, err
		}
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("workerclient: close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/workers/submit", &buf)
	if err != nil {
		return out, fmt.Errorf("workerclient: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("workerclient: submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("workerclient: submit returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("workerclient: decode submit response: %w", err)
	}
	return out, nil
}

func writeMultipartFile(mw *multipart.Writer, field, filename string, data []byte) error {
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("workerclient: create form file %q: %w", field, err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("workerclient: write form file %q: %w", field, err)
	}
	return nil
}

// Heartbeat calls POST /workers/heartbeat, mirroring
// original_source/src/Page/main.py's send_heartbeat.
func (c *Client) Heartbeat(ctx context.Context, customerID string) (bool, error) {
	body, err := json.Marshal(struct {
		WorkerID   string `json:"workerId"`
		CustomerID string `json:"customerId"`
	}{c.workerID, customerID})
	if err != nil {
		return false, fmt.Errorf("workerclient: marshal heartbeat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/workers/heartbeat", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("workerclient: build heartbeat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("workerclient: heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()

	var out protocol.HeartbeatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("workerclient: decode heartbeat response: %w", err)
	}
	return out.Ok, nil
}

// IsCancelled calls GET /workers/cancelled/{customerId}.
func (c *Client) IsCancelled(ctx context.Context, customerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/workers/cancelled/"+customerID, nil)
	if err != nil {
		return false, fmt.Errorf("workerclient: build cancellation poll request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("workerclient: cancellation poll failed: %w", err)
	}
	defer resp.Body.Close()

	var out protocol.CancellationPollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("workerclient: decode cancellation poll response: %w", err)
	}
	return out.Cancel, nil
}

// HeartbeatLoop heartbeats customerID every interval until ctx is done,
// mirroring original_source/src/Page/main.py's start_heartbeat/stop_event
// pair. It is meant to run as one leg of an errgroup.Group alongside the
// job execution itself, the way prxssh-shard's Worker.Start runs workLoop
// and heartbeatLoop as two grp.Go calls under a single errgroup.Group.
func (c *Client) HeartbeatLoop(ctx context.Context, customerID string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = c.Heartbeat(ctx, customerID)
		}
	}
}
