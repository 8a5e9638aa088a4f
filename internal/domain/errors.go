package domain

import "errors"

// Sentinel errors for the API error taxonomy. Handlers map these to HTTP
// status codes; everything that happens after subprocess spawn is reported
// through the job registry instead.
var (
	// ErrValidation indicates a malformed request (missing url/format_id).
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates the job key already has an active download.
	ErrConflict = errors.New("download already in progress")

	// ErrPathViolation indicates a path that resolves outside the
	// configured download root.
	ErrPathViolation = errors.New("path outside download root")

	// ErrNotFound indicates an unknown file or job.
	ErrNotFound = errors.New("not found")
)
