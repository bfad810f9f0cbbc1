package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Kumaragurubaran2005/Leaf-cloud/internal/engine"
)

// errorBody is the JSON shape of every non-2xx response. It carries a
// stable machine-readable code alongside the human message, per spec.md
// §7's "each maps to a distinct, stable status code" rule.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeEngineError maps the engine's sentinel-error taxonomy onto HTTP
// status codes (spec.md §7) and writes the mapped body. Anything that
// doesn't match a known sentinel falls back to Internal.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, engine.ErrUnknownJob):
		writeError(w, http.StatusNotFound, "unknown_job", err)
	case errors.Is(err, engine.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, engine.ErrCancelled):
		writeError(w, http.StatusConflict, "cancelled", err)
	case errors.Is(err, engine.ErrNotReady):
		writeError(w, http.StatusConflict, "not_ready", err)
	case errors.Is(err, engine.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
