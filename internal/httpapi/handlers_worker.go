package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

const outputFieldPrefix = "output_"

type claimRequest struct {
	WorkerID string `json:"workerId"`
}

// claimResponse flattens protocol.ClaimResponse's fields alongside a
// status tag, so no-work/cancelled outcomes carry the same JSON shape as
// an assigned one with the task fields simply empty.
type claimResponse struct {
	Status protocol.ClaimStatus `json:"status"`
	protocol.ClaimResponse
}

// handleClaim implements spec.md §6's "Claim task".
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", errValidation("workerId is required"))
		return
	}

	result := s.engine.Claim(req.WorkerID)

	switch result.Outcome {
	case engine.ClaimNoWork:
		writeJSON(w, http.StatusOK, claimResponse{Status: protocol.ClaimNoWork})
	case engine.ClaimCancelled:
		writeJSON(w, http.StatusOK, claimResponse{Status: protocol.ClaimCancelled})
	default:
		writeJSON(w, http.StatusOK, claimResponse{
			Status: protocol.ClaimAssigned,
			ClaimResponse: protocol.ClaimResponse{
				TaskID:       result.TaskID,
				CustomerID:   result.CustomerID,
				WorkerIndex:  result.WorkerIndex,
				TotalWorkers: result.TotalWorkers,
				Code:         result.Code,
				Dataset:      result.Dataset,
				Requirement:  result.Requirement,
			},
		})
	}
}

// handleSubmitResult implements spec.md §6's "Submit result": multipart
// fields workerId/customerId plus files result, usage, and zero or more
// output_<filename> fields. Per spec.md §9, output filenames are
// attacker-controlled and scanned by prefix rather than a fixed schema.
func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}

	workerID := r.FormValue("workerId")
	customerID := r.FormValue("customerId")
	if workerID == "" || customerID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", errValidation("workerId and customerId are required"))
		return
	}

	result, err := readFormFile(r, "result")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}
	usage, err := readFormFile(r, "usage")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}

	outputFiles := make(map[string][]byte)
	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			name, ok := strings.CutPrefix(field, outputFieldPrefix)
			if !ok {
				continue
			}
			name = sanitizeFieldName(name)
			if name == "" || len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				continue
			}
			outputFiles[name] = data
		}
	}

	outcome := s.engine.Submit(workerID, customerID, result, usage, outputFiles)

	resp := protocol.SubmitResultResponse{PendingWorkers: outcome.PendingWorkers, IsCompleted: outcome.IsCompleted}
	switch outcome.Outcome {
	case engine.SubmitOK:
		resp.Status = "ok"
	case engine.SubmitUnknownJob:
		resp.Status = "unknown-job"
	case engine.SubmitCancelled:
		resp.Status = "cancelled"
	case engine.SubmitUnauthorized:
		resp.Status = "unauthorized"
	case engine.SubmitDuplicate:
		resp.Status = "duplicate"
	}
	writeJSON(w, http.StatusOK, resp)
}

// sanitizeFieldName rejects path separators and ".." the same way
// internal/runtime's output collector does, since this is the same
// attacker-controlled-filename concern spec.md §9 calls out.
func sanitizeFieldName(name string) string {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return ""
	}
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

type heartbeatRequest struct {
	WorkerID   string `json:"workerId"`
	CustomerID string `json:"customerId"`
}

// handleHeartbeat implements spec.md §6's "Heartbeat".
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}
	ok := s.engine.Heartbeat(req.WorkerID, req.CustomerID)
	writeJSON(w, http.StatusOK, protocol.HeartbeatResponse{Ok: ok})
}

// handleCancellationPoll implements spec.md §6's "Cancellation poll".
func (s *Server) handleCancellationPoll(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	writeJSON(w, http.StatusOK, protocol.CancellationPollResponse{Cancel: s.engine.IsCancelled(customerID)})
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errValidation(msg string) error { return validationError(msg) }
