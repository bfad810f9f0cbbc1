package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HTTPAdapter posts audit rows to an external store over HTTP. It is used
// in place of LogAdapter when an AUDIT_STORE_URL is configured. Every
// failure is logged and swallowed — the engine's correctness never depends
// on these writes landing (spec.md §6, §7 AuditFailure).
type HTTPAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPAdapter returns an Adapter that POSTs to baseURL + "/files",
// "/worker_usage_stats", and "/resource_provider".
func NewHTTPAdapter(baseURL string, logger *slog.Logger) *HTTPAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger.With("component", "audit"),
	}
}

func (a *HTTPAdapter) post(path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn("audit marshal failed", "path", path, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		a.logger.Warn("audit request build failed", "path", path, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("audit write failed", "path", path, "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.logger.Warn("audit write rejected", "path", path, "status", resp.StatusCode)
	}
}

func (a *HTTPAdapter) AdjustCounter(workerID string, counter Counter, delta int) {
	a.post("/resource_provider", map[string]any{
		"workerId": workerID,
		"counter":  string(counter),
		"delta":    delta,
	})
}

func (a *HTTPAdapter) RecordSubmission(rec SubmissionRecord) {
	a.post("/worker_usage_stats", map[string]any{
		"customerId":           rec.CustomerID,
		"workerId":             rec.WorkerID,
		"cpuPercent":           rec.Usage.CPUPercent,
		"memoryMB":             rec.Usage.MemoryMB,
		"executionTimeSeconds": rec.Usage.ExecutionTimeSeconds,
		"parsedOK":             rec.Usage.ParsedOK,
		"submittedAt":          rec.SubmittedAt,
	})
}

func (a *HTTPAdapter) RecordJob(rec JobRecord) {
	a.post("/files", map[string]any{
		"customerId":   rec.CustomerID,
		"taskId":       rec.TaskID,
		"customerName": rec.CustomerName,
		"code":         rec.Code,
		"dataset":      rec.Dataset,
		"requirement":  rec.Requirement,
		"numWorkers":   rec.NumWorkers,
		"createdAt":    rec.CreatedAt,
	})
}
