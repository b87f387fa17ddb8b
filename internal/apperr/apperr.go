// Package apperr defines the closed error taxonomy the pipeline surfaces at
// its boundaries, matching the propagation policy described for the diff
// ingestion pipeline: configuration errors are detected before any Git
// work, driver errors are translated at the driver boundary, and nothing
// below INTERNAL_ERROR is used to mask a known category.
package apperr

import "fmt"

// Code is one of the closed set of failure categories the pipeline reports.
type Code string

const (
	GitVersionUnsupported Code = "GIT_VERSION_UNSUPPORTED"
	CloneFailed           Code = "CLONE_FAILED"
	CommitNotFound        Code = "COMMIT_NOT_FOUND"
	CapsInvalid           Code = "CAPS_INVALID"
	NetworkTimeout        Code = "NETWORK_TIMEOUT"
	Internal              Code = "INTERNAL_ERROR"
)

// Error is a structured failure carrying a taxonomy code, a human-readable
// message, and a details mapping (e.g. missing SHAs, repo URL, detected
// version) for the envelope's error.details field.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs a structured Error. details may be nil.
func New(code Code, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Wrap produces an INTERNAL_ERROR that carries the original error's text in
// its message, for use only as a last-resort catch-all.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: Internal, Message: err.Error()}
}
