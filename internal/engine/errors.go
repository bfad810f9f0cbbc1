package engine

import "errors"

// Sentinel errors for the taxonomy in spec.md §7. Callers compare with
// errors.Is; the HTTP layer maps each to a stable status code.
var (
	ErrValidation   = errors.New("engine: validation error")
	ErrUnknownJob   = errors.New("engine: unknown job")
	ErrUnauthorized = errors.New("engine: worker not assigned to job")
	ErrCancelled    = errors.New("engine: job is cancelled")
	ErrNotReady     = errors.New("engine: job is not ready for download")
	ErrDuplicate    = errors.New("engine: worker already submitted a result")
)
