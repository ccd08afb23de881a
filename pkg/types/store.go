package types

// ProgressPatch is the unit of mutation accepted by Store.UpdateProgress.
// Nil pointer fields leave the corresponding record field untouched; Events
// are merged one by one under their kind's rule. A patch never removes
// interaction keys it does not name.
type ProgressPatch struct {
	CurrentRoomID    *string
	CurrentTaskIndex *int

	InitialConditionDone *bool
	ExitQuestionsDone    *bool
	WorkflowComplete     *bool

	Events []Interaction
}

// Empty reports whether applying the patch would change nothing.
func (p ProgressPatch) Empty() bool {
	return p.CurrentRoomID == nil &&
		p.CurrentTaskIndex == nil &&
		p.InitialConditionDone == nil &&
		p.ExitQuestionsDone == nil &&
		p.WorkflowComplete == nil &&
		len(p.Events) == 0
}

// Store defines durable, versioned persistence of session records. Callers
// attach to a backend, operate on sessions by identifier, and detach when
// done. Mutating calls on unknown identifiers fail with ErrSessionNotFound;
// Get returns the same sentinel as its explicit absence signal, matched
// with errors.Is.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Creates the data directory if needed. Returns ErrAlreadyAttached if
	// called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, all
	// operations return ErrStoreDetached.
	Detach() error

	// Create allocates a fresh session identifier and writes an initial
	// record with an empty progress. The identifier never collides with
	// an existing one.
	Create(ownerID, subjectID, flowKind string, ownerProfile, subjectProfile *Profile) (*SessionRecord, error)

	// Get fetches a session by identifier. Returns ErrSessionNotFound
	// when absent; callers routinely probe for sessions that may not
	// exist.
	Get(sessionID string) (*SessionRecord, error)

	// Save upserts a full record, refreshing LastActiveAt before writing.
	Save(record *SessionRecord) error

	// UpdateProgress merges a patch into the latest persisted record and
	// returns the result. The merge is read-modify-write against the
	// store, never against a cached copy.
	UpdateProgress(sessionID string, patch ProgressPatch) (*SessionRecord, error)

	// Complete transitions the session to completed. Idempotent: a second
	// call is a no-op, not an error.
	Complete(sessionID string) (*SessionRecord, error)

	// Terminate transitions the session to terminated, recording the
	// report reference when non-empty. Idempotent like Complete.
	Terminate(sessionID string, reportRef string) (*SessionRecord, error)

	// ListByOwner returns the owner's sessions ordered by LastActiveAt
	// descending, for session-resume discovery.
	ListByOwner(ownerID string) ([]*SessionRecord, error)

	// Delete removes a session record. Returns ErrSessionNotFound when
	// absent.
	Delete(sessionID string) error
}
