package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
	"github.com/Kumaragurubaran2005/Leaf-cloud/pkg/protocol"
)

// handleSubmitJob implements spec.md §6's "Submit job": a multipart upload
// of code (required), dataset (optional), requirement (optional), plus
// customername and respn fields.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}

	code, err := readFormFile(r, "code")
	if err != nil || len(code) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", errors.New("code is required"))
		return
	}
	dataset, _ := readFormFile(r, "dataset")
	requirement, _ := readFormFile(r, "requirement")

	customerName := r.FormValue("customername")
	respn, err := strconv.Atoi(r.FormValue("respn"))
	if err != nil || respn < 1 {
		writeError(w, http.StatusBadRequest, "validation_error", errors.New("respn must be an integer >= 1"))
		return
	}

	job, err := s.engine.CreateJob(customerName, code, dataset, requirement, respn)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, protocol.SubmitJobResponse{
		CustomerID: job.CustomerID,
		TaskID:     job.TaskID,
		NumWorkers: job.NumWorkers,
	})
}

// readFormFile returns nil, nil when the named part was never sent — the
// caller decides whether that's an error (code) or fine (dataset,
// requirement).
func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, nil
	}
	defer file.Close()
	return io.ReadAll(file)
}

// handleUpdates implements spec.md §6's "Poll updates": drain() semantics
// over the customer's progress feed.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	resp, err := s.engine.DrainUpdates(customerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus implements spec.md §6's "Poll status".
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	resp, err := s.engine.Status(customerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCancel implements spec.md §6's "Cancel job".
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	if err := s.engine.Cancel(customerID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// handleDownload implements spec.md §6's "Download results" gate:
// isCompleted && !isCancelled && |results| == numWorkers, else refused.
// The ZIP construction itself lives in download.go, since the spec treats
// ZIP assembly as an external collaborator contract, not engine logic.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("customerId")
	job, err := s.engine.Snapshot(customerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if job.IsCancelled {
		writeError(w, http.StatusConflict, "cancelled", engine.ErrCancelled)
		return
	}
	if !job.IsCompleted || len(job.Results) != job.NumWorkers {
		writeError(w, http.StatusConflict, "not_ready", engine.ErrNotReady)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+job.CustomerID+"_results.zip\"")
	if err := writeResultArchive(w, job); err != nil {
		s.logger.Warn("download archive write failed", "customerId", customerID, "err", err)
	}
}
