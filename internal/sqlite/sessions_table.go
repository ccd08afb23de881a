// Session record CRUD over the sessions table. Each operation hydrates and
// dehydrates between SQLite rows and *types.SessionRecord, and runs under
// the schema-drift recovery wrapper.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/walkabout/pkg/types"
)

const sessionColumns = `session_id, owner_id, subject_id, flow_kind, lifecycle,
	workflow_complete, created_at, last_active_at, completed_at, terminated_at,
	report_reference, owner_profile, subject_profile, progress`

// generateSessionID returns a UUID v7 session identifier: a millisecond
// monotonic time component followed by a random tail. Falls back to v4 if
// v7 generation fails.
func generateSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Create allocates a fresh identifier and writes an initial record with an
// empty progress.
func (s *Store) Create(ownerID, subjectID, flowKind string, ownerProfile, subjectProfile *types.Profile) (*types.SessionRecord, error) {
	if !types.ValidFlowKind(flowKind) {
		return nil, types.ErrInvalidFlowKind
	}

	now := time.Now().UTC()
	record := &types.SessionRecord{
		SessionID:      generateSessionID(),
		OwnerID:        ownerID,
		SubjectID:      subjectID,
		FlowKind:       flowKind,
		Lifecycle:      types.LifecycleActive,
		CreatedAt:      now,
		LastActiveAt:   now,
		OwnerProfile:   ownerProfile,
		SubjectProfile: subjectProfile,
	}

	err := s.withRecovery(func(db *sql.DB) error {
		return insertSession(db, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Get fetches a session by identifier. Returns ErrSessionNotFound when no
// record exists.
func (s *Store) Get(sessionID string) (*types.SessionRecord, error) {
	if sessionID == "" {
		return nil, types.ErrInvalidID
	}

	var record *types.SessionRecord
	err := s.withRecovery(func(db *sql.DB) error {
		row := db.QueryRow(
			"SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?",
			sessionID,
		)
		var err error
		record, err = hydrateSession(row.Scan)
		if err == sql.ErrNoRows {
			return types.ErrSessionNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Save upserts a full record. LastActiveAt is refreshed before writing so
// staleness stays measurable without bumping lifecycle-relevant fields.
func (s *Store) Save(record *types.SessionRecord) error {
	if record == nil {
		return types.ErrInvalidData
	}
	if record.SessionID == "" {
		return types.ErrInvalidID
	}

	record.Touch()
	return s.withRecovery(func(db *sql.DB) error {
		return upsertSession(db, record)
	})
}

// UpdateProgress merges a patch into the latest persisted record. The
// read-modify-write runs in one transaction so two recorders mutating
// different keys never clobber each other's keys.
func (s *Store) UpdateProgress(sessionID string, patch types.ProgressPatch) (*types.SessionRecord, error) {
	if sessionID == "" {
		return nil, types.ErrInvalidID
	}

	var record *types.SessionRecord
	err := s.withRecovery(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin progress update: %w", err)
		}
		defer tx.Rollback()

		row := tx.QueryRow(
			"SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?",
			sessionID,
		)
		record, err = hydrateSession(row.Scan)
		if err == sql.ErrNoRows {
			return types.ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		s.applyPatch(record, patch)
		record.Touch()

		if err := updateSessionTx(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// applyPatch merges the patch into the record in place. Keyed replaces that
// overwrite an existing entry are logged as accepted last-write-wins, not
// treated as errors.
func (s *Store) applyPatch(record *types.SessionRecord, patch types.ProgressPatch) {
	p := &record.Progress

	if patch.CurrentRoomID != nil {
		p.CurrentRoomID = *patch.CurrentRoomID
	}
	if patch.CurrentTaskIndex != nil {
		p.CurrentTaskIndex = *patch.CurrentTaskIndex
	}
	if patch.InitialConditionDone != nil {
		p.InitialConditionDone = *patch.InitialConditionDone
	}
	if patch.ExitQuestionsDone != nil {
		p.ExitQuestionsDone = *patch.ExitQuestionsDone
	}
	if patch.WorkflowComplete != nil {
		record.IsWorkflowComplete = *patch.WorkflowComplete
	}

	for _, ev := range patch.Events {
		if overwritesKeyedEntry(&p.Interactions, ev) {
			s.log.Warn("interaction key overwritten, last write wins",
				"session", record.SessionID, "kind", ev.Kind(), "key", ev.MergeKey())
		}
		p.Interactions.Apply(ev)
	}
}

// overwritesKeyedEntry reports whether ev is a keyed replace hitting an
// entry that already exists. Append-only kinds never overwrite.
func overwritesKeyedEntry(ix *types.Interactions, ev types.Interaction) bool {
	key := ev.MergeKey()
	switch ev.Kind() {
	case types.KindCheckbox:
		_, ok := ix.CheckboxStates[key]
		return ok
	case types.KindIssue:
		_, ok := ix.IssueReports[key]
		return ok
	case types.KindExitAnswer:
		_, ok := ix.ExitAnswers[key]
		return ok
	case types.KindRoomState:
		_, ok := ix.RoomStates[key]
		return ok
	default:
		return false
	}
}

// Complete transitions the session to completed. A record already in a
// terminal state is returned unchanged, timestamps included.
func (s *Store) Complete(sessionID string) (*types.SessionRecord, error) {
	return s.transition(sessionID, func(r *types.SessionRecord) bool {
		return r.Complete()
	})
}

// Terminate transitions the session to terminated and stores the report
// reference verbatim. Idempotent like Complete.
func (s *Store) Terminate(sessionID string, reportRef string) (*types.SessionRecord, error) {
	return s.transition(sessionID, func(r *types.SessionRecord) bool {
		return r.Terminate(reportRef)
	})
}

// transition runs an idempotent terminal-state change as one
// read-modify-write. When the entity method reports no change, nothing is
// written back.
func (s *Store) transition(sessionID string, change func(*types.SessionRecord) bool) (*types.SessionRecord, error) {
	if sessionID == "" {
		return nil, types.ErrInvalidID
	}

	var record *types.SessionRecord
	err := s.withRecovery(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transition: %w", err)
		}
		defer tx.Rollback()

		row := tx.QueryRow(
			"SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?",
			sessionID,
		)
		record, err = hydrateSession(row.Scan)
		if err == sql.ErrNoRows {
			return types.ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		if !change(record) {
			return tx.Commit()
		}
		record.Touch()
		if err := updateSessionTx(tx, record); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListByOwner returns the owner's sessions ordered by last_active_at
// descending. Returns an empty slice, not nil, when the owner has none.
func (s *Store) ListByOwner(ownerID string) ([]*types.SessionRecord, error) {
	records := []*types.SessionRecord{}
	err := s.withRecovery(func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT "+sessionColumns+" FROM sessions WHERE owner_id = ? ORDER BY last_active_at DESC",
			ownerID,
		)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			record, err := hydrateSession(rows.Scan)
			if err != nil {
				return fmt.Errorf("hydrate session: %w", err)
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a session record. Returns ErrSessionNotFound when absent.
func (s *Store) Delete(sessionID string) error {
	if sessionID == "" {
		return types.ErrInvalidID
	}

	return s.withRecovery(func(db *sql.DB) error {
		res, err := db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if n == 0 {
			return types.ErrSessionNotFound
		}
		return nil
	})
}

// execer covers *sql.DB and *sql.Tx for the write helpers.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSession(e execer, record *types.SessionRecord) error {
	args, err := dehydrateSession(record)
	if err != nil {
		return err
	}
	_, err = e.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func upsertSession(e execer, record *types.SessionRecord) error {
	args, err := dehydrateSession(record)
	if err != nil {
		return err
	}
	_, err = e.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		    owner_id = excluded.owner_id,
		    subject_id = excluded.subject_id,
		    flow_kind = excluded.flow_kind,
		    lifecycle = excluded.lifecycle,
		    workflow_complete = excluded.workflow_complete,
		    last_active_at = excluded.last_active_at,
		    completed_at = excluded.completed_at,
		    terminated_at = excluded.terminated_at,
		    report_reference = excluded.report_reference,
		    owner_profile = excluded.owner_profile,
		    subject_profile = excluded.subject_profile,
		    progress = excluded.progress`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func updateSessionTx(tx *sql.Tx, record *types.SessionRecord) error {
	args, err := dehydrateSession(record)
	if err != nil {
		return err
	}
	// Reorder: session_id moves to the WHERE clause.
	_, err = tx.Exec(
		`UPDATE sessions SET
		    owner_id = ?, subject_id = ?, flow_kind = ?, lifecycle = ?,
		    workflow_complete = ?, created_at = ?, last_active_at = ?,
		    completed_at = ?, terminated_at = ?, report_reference = ?,
		    owner_profile = ?, subject_profile = ?, progress = ?
		 WHERE session_id = ?`,
		append(args[1:], args[0])...,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// dehydrateSession flattens a record into the column order of
// sessionColumns.
func dehydrateSession(record *types.SessionRecord) ([]any, error) {
	progressJSON, err := json.Marshal(record.Progress)
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	ownerProfile, err := marshalProfile(record.OwnerProfile)
	if err != nil {
		return nil, fmt.Errorf("marshal owner profile: %w", err)
	}
	subjectProfile, err := marshalProfile(record.SubjectProfile)
	if err != nil {
		return nil, fmt.Errorf("marshal subject profile: %w", err)
	}

	return []any{
		record.SessionID,
		record.OwnerID,
		record.SubjectID,
		record.FlowKind,
		record.Lifecycle,
		boolToInt(record.IsWorkflowComplete),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.LastActiveAt.Format(time.RFC3339Nano),
		timePtrToString(record.CompletedAt),
		timePtrToString(record.TerminatedAt),
		record.ReportReference,
		ownerProfile,
		subjectProfile,
		string(progressJSON),
	}, nil
}

// hydrateSession converts one row into a *types.SessionRecord. scan is
// either sql.Row.Scan or sql.Rows.Scan.
func hydrateSession(scan func(dest ...any) error) (*types.SessionRecord, error) {
	var (
		r                            types.SessionRecord
		workflowComplete             int
		createdAt, lastActiveAt      string
		completedAt, terminatedAt    sql.NullString
		ownerProfile, subjectProfile sql.NullString
		progressJSON                 string
	)
	err := scan(
		&r.SessionID, &r.OwnerID, &r.SubjectID, &r.FlowKind, &r.Lifecycle,
		&workflowComplete, &createdAt, &lastActiveAt, &completedAt, &terminatedAt,
		&r.ReportReference, &ownerProfile, &subjectProfile, &progressJSON,
	)
	if err != nil {
		return nil, err
	}

	r.IsWorkflowComplete = workflowComplete != 0
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.LastActiveAt, err = time.Parse(time.RFC3339Nano, lastActiveAt); err != nil {
		return nil, fmt.Errorf("parse last_active_at: %w", err)
	}
	if r.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	if r.TerminatedAt, err = parseTimePtr(terminatedAt); err != nil {
		return nil, fmt.Errorf("parse terminated_at: %w", err)
	}
	if r.OwnerProfile, err = unmarshalProfile(ownerProfile); err != nil {
		return nil, fmt.Errorf("parse owner profile: %w", err)
	}
	if r.SubjectProfile, err = unmarshalProfile(subjectProfile); err != nil {
		return nil, fmt.Errorf("parse subject profile: %w", err)
	}
	if err := json.Unmarshal([]byte(progressJSON), &r.Progress); err != nil {
		return nil, fmt.Errorf("parse progress: %w", err)
	}
	return &r, nil
}

func marshalProfile(p *types.Profile) (any, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalProfile(v sql.NullString) (*types.Profile, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var p types.Profile
	if err := json.Unmarshal([]byte(v.String), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func timePtrToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
