package models

import "errors"

// Sentinel errors shared across the service. Callers match with errors.Is;
// handlers translate them to HTTP status codes.
var (
	// ErrValidation marks a malformed or incomplete input record, such as a
	// team snapshot missing its stats block. Not retryable without fixing
	// the request.
	ErrValidation = errors.New("invalid input")

	// ErrDataNotFound marks a training dataset path that does not resolve.
	ErrDataNotFound = errors.New("dataset not found")

	// ErrModelNotFound marks a missing model artifact at load time. There is
	// no fallback heuristic; predictions are never served by a stub model.
	ErrModelNotFound = errors.New("model artifact not found")

	// ErrTraining marks a failed fit (degenerate labels, numerical failure).
	// The previous artifact, if any, is left untouched.
	ErrTraining = errors.New("training failed")

	// ErrServiceUnavailable is the facade-level form of ErrModelNotFound:
	// a predict request arrived while no model is loaded. Retryable after
	// training completes.
	ErrServiceUnavailable = errors.New("no model loaded")
)
