package types

import "time"

// Flow kinds. Fixed at session creation, never mutated.
const (
	FlowArrival   = "arrival"
	FlowDeparture = "departure"
)

// validFlowKinds is the set of recognized flow kind values.
var validFlowKinds = map[string]bool{
	FlowArrival:   true,
	FlowDeparture: true,
}

// ValidFlowKind reports whether kind is a recognized flow kind.
func ValidFlowKind(kind string) bool {
	return validFlowKinds[kind]
}

// Lifecycle states. Transitions are monotonic: active may move to any
// terminal state; terminal states never transition again.
const (
	LifecycleActive     = "active"
	LifecycleCompleted  = "completed"
	LifecycleTerminated = "terminated"
	LifecycleCancelled  = "cancelled"
)

// terminalLifecycles is the set of lifecycle values no record leaves.
var terminalLifecycles = map[string]bool{
	LifecycleCompleted:  true,
	LifecycleTerminated: true,
	LifecycleCancelled:  true,
}

// Profile is denormalized display metadata cached on the session so the
// resume UI needs no network round-trip.
type Profile struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// SessionRecord is the durable unit of state for one check-in/check-out
// workflow instance. SessionID is allocated on creation and never reused;
// a new workflow always gets a new record.
type SessionRecord struct {
	SessionID string `json:"session_id"`
	OwnerID   string `json:"owner_id"`
	SubjectID string `json:"subject_id"`
	FlowKind  string `json:"flow_kind"`
	Lifecycle string `json:"lifecycle"`

	// IsWorkflowComplete is the derived flag set once every task in every
	// room is done. It is independent of Lifecycle: an arrival session can
	// be workflow-complete while still active.
	IsWorkflowComplete bool `json:"is_workflow_complete"`

	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`

	// ReportReference is the external report identifier, set only after a
	// successful terminal submission. Stored verbatim.
	ReportReference string `json:"report_reference,omitempty"`

	OwnerProfile   *Profile `json:"owner_profile,omitempty"`
	SubjectProfile *Profile `json:"subject_profile,omitempty"`

	Progress Progress `json:"progress"`
}

// IsTerminal reports whether the record is in a terminal lifecycle state.
func (r *SessionRecord) IsTerminal() bool {
	return terminalLifecycles[r.Lifecycle]
}

// Complete marks the session completed. Idempotent: a record already in a
// terminal state is left untouched (timestamps unchanged) and false is
// returned. Returns true when the transition was applied.
func (r *SessionRecord) Complete() bool {
	if r.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	r.Lifecycle = LifecycleCompleted
	r.CompletedAt = &now
	return true
}

// Terminate marks the session terminated, recording the report reference
// when one is supplied. Idempotent in the same way as Complete.
func (r *SessionRecord) Terminate(reportRef string) bool {
	if r.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	r.Lifecycle = LifecycleTerminated
	r.TerminatedAt = &now
	if reportRef != "" {
		r.ReportReference = reportRef
	}
	return true
}

// Cancel marks the session cancelled. Idempotent in the same way as Complete.
func (r *SessionRecord) Cancel() bool {
	if r.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	r.Lifecycle = LifecycleCancelled
	r.TerminatedAt = &now
	return true
}

// Touch refreshes LastActiveAt so staleness is measurable without bumping
// any lifecycle-relevant field.
func (r *SessionRecord) Touch() {
	r.LastActiveAt = time.Now().UTC()
}
