package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Session operation errors.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidID         = errors.New("invalid session ID")
	ErrInvalidData       = errors.New("invalid session data")
	ErrInvalidFlowKind   = errors.New("invalid flow kind")
	ErrInvalidLifecycle  = errors.New("invalid lifecycle value")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// Recorder and synchronizer errors.
var (
	// ErrInvalidTaskID reports a task identifier that does not match the
	// canonical identifier grammar and cannot be normalized. Callers must
	// not fall back to the raw string; fragmented merge keys are worse
	// than a rejected event.
	ErrInvalidTaskID = errors.New("invalid task identifier")

	// ErrIdentifierMismatch reports that the subject identifier derived
	// from the address disagrees with the one stored on an existing
	// session. The caller must start a new session rather than reuse the
	// old identifier.
	ErrIdentifierMismatch = errors.New("address and session identifiers disagree")

	ErrNoActiveSession = errors.New("no active session bound")

	// ErrDeliveryFailed reports a downstream report submission failure.
	// The session's terminal state is committed regardless; callers
	// surface this as a non-blocking warning.
	ErrDeliveryFailed = errors.New("report delivery failed")
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrBadInterval    = errors.New("interval must be positive")
)
