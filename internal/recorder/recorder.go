// Package recorder translates discrete UI events into durable,
// non-destructive updates of a session's interaction maps. It tolerates
// being invoked before a session exists: events recorded while unbound go
// to an in-memory pending queue and replay in FIFO order once a session is
// bound.
// See docs/ARCHITECTURE.md § Interaction Recorder.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fieldops/walkabout/pkg/types"
)

// Recorder records interaction events against the session store. Safe for
// concurrent use by independent UI components.
type Recorder struct {
	store types.Store
	log   *slog.Logger

	mu        sync.Mutex
	sessionID string
	pending   []types.Interaction
	checklist types.ChecklistDef
}

// New creates a Recorder over the given store. A nil logger is silenced.
func New(store types.Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{store: store, log: log}
}

// SetChecklist supplies the checklist shape used for room aggregate
// recomputation. The definition is treated as opaque beyond room ids and
// task counts.
func (r *Recorder) SetChecklist(def types.ChecklistDef) {
	r.mu.Lock()
	r.checklist = def
	r.mu.Unlock()
}

// ActiveSession returns the currently bound session identifier, empty when
// unbound.
func (r *Recorder) ActiveSession() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// PendingCount returns the number of queued events awaiting a session.
func (r *Recorder) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// SetActiveSession binds the recorder to a session and drains the pending
// queue in FIFO order, replaying each queued event through the normal
// merge path. Events recorded between "user started acting" and "session
// identifier became available" are never lost: when a replay write fails,
// the failed event and the unreplayed tail return to the head of the
// queue, the recorder unbinds, and a later bind retries them in order.
func (r *Recorder) SetActiveSession(sessionID string) error {
	if sessionID == "" {
		return types.ErrInvalidID
	}
	record, err := r.store.Get(sessionID)
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	r.repairCursor(sessionID, record)

	r.mu.Lock()
	r.sessionID = sessionID
	queued := r.pending
	r.pending = nil
	r.mu.Unlock()

	for i, ev := range queued {
		if err := r.record(sessionID, ev); err != nil {
			r.mu.Lock()
			r.sessionID = ""
			r.pending = append(append([]types.Interaction{}, queued[i:]...), r.pending...)
			r.mu.Unlock()
			return fmt.Errorf("replay queued %s event: %w", ev.Kind(), err)
		}
	}
	return nil
}

// repairCursor re-validates the bound session's progress cursor against
// the checklist shape and persists the adjustment. Best effort: a stale
// cursor only costs the operator a screen hop, so a failed repair is
// logged, not fatal to the bind.
func (r *Recorder) repairCursor(sessionID string, record *types.SessionRecord) {
	r.mu.Lock()
	def := r.checklist
	r.mu.Unlock()
	if len(def.Rooms) == 0 {
		return
	}
	if !record.Progress.ValidateCursor(def) {
		return
	}

	room := record.Progress.CurrentRoomID
	index := record.Progress.CurrentTaskIndex
	_, err := r.store.UpdateProgress(sessionID, types.ProgressPatch{
		CurrentRoomID:    &room,
		CurrentTaskIndex: &index,
	})
	if err != nil {
		r.log.Warn("cursor repair failed",
			"session", sessionID, "room", room, "task", index, "error", err)
	}
}

// ClearActiveSession unbinds the recorder. Subsequent events queue again.
func (r *Recorder) ClearActiveSession() {
	r.mu.Lock()
	r.sessionID = ""
	r.mu.Unlock()
}

// Track merges one event into the bound session, or queues it when no
// session is bound. Queuing is not an error: the call returns immediately
// and the event replays on bind.
func (r *Recorder) Track(ev types.Interaction) error {
	r.mu.Lock()
	sessionID := r.sessionID
	if sessionID == "" {
		r.pending = append(r.pending, ev)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.record(sessionID, ev)
}

// TrackButton records a button press. The task identifier, when present,
// is normalized before use as a merge key.
func (r *Recorder) TrackButton(ev types.ButtonEvent) error {
	var err error
	if ev.ButtonID, err = NormalizeID(ev.ButtonID); err != nil {
		return err
	}
	if ev.TaskID != "" {
		if ev.TaskID, err = NormalizeID(ev.TaskID); err != nil {
			return err
		}
	}
	return r.Track(ev)
}

// TrackPhoto records a photo event from the capture pipeline.
func (r *Recorder) TrackPhoto(ev types.PhotoEvent) error {
	var err error
	if ev.TaskID, err = NormalizeID(ev.TaskID); err != nil {
		return err
	}
	return r.Track(ev)
}

// TrackCheckbox records the latest state of a checkbox.
func (r *Recorder) TrackCheckbox(ev types.CheckboxEvent) error {
	var err error
	if ev.TaskID, err = NormalizeID(ev.TaskID); err != nil {
		return err
	}
	return r.Track(ev)
}

// TrackIssue records an issue report.
func (r *Recorder) TrackIssue(ev types.IssueEvent) error {
	var err error
	if ev.IssueID, err = NormalizeID(ev.IssueID); err != nil {
		return err
	}
	if ev.TaskID != "" {
		if ev.TaskID, err = NormalizeID(ev.TaskID); err != nil {
			return err
		}
	}
	return r.Track(ev)
}

// TrackExitAnswer records the latest answer to an exit question.
func (r *Recorder) TrackExitAnswer(ev types.ExitAnswerEvent) error {
	var err error
	if ev.QuestionID, err = NormalizeID(ev.QuestionID); err != nil {
		return err
	}
	return r.Track(ev)
}

// TrackNavigation appends an observed route change to the navigation log.
func (r *Recorder) TrackNavigation(ev types.NavigationEvent) error {
	return r.Track(ev)
}

// record performs the read-modify-write against the latest persisted
// record, then triggers the best-effort room aggregate update for event
// kinds that affect it.
func (r *Recorder) record(sessionID string, ev types.Interaction) error {
	updated, err := r.store.UpdateProgress(sessionID, types.ProgressPatch{
		Events: []types.Interaction{ev},
	})
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("record %s event: %w", ev.Kind(), err)
	}

	switch ev.Kind() {
	case types.KindPhoto, types.KindCheckbox, types.KindIssue:
		r.updateRoomAggregate(sessionID, updated, ev)
	}
	return nil
}

// updateRoomAggregate recomputes the affected room's aggregate and writes
// it back. Best effort: the raw interaction maps remain the source of
// truth, so a failure here is logged and swallowed.
func (r *Recorder) updateRoomAggregate(sessionID string, record *types.SessionRecord, ev types.Interaction) {
	roomID := eventRoomID(ev)
	if roomID == "" {
		return
	}

	r.mu.Lock()
	taskCount := 0
	for _, room := range r.checklist.Rooms {
		if room.RoomID == roomID {
			taskCount = room.TaskCount
			break
		}
	}
	r.mu.Unlock()

	state := record.Progress.Interactions.RecomputeRoomState(roomID, taskCount)
	_, err := r.store.UpdateProgress(sessionID, types.ProgressPatch{
		Events: []types.Interaction{types.RoomStateEvent{State: state}},
	})
	if err != nil {
		r.log.Warn("room aggregate update failed",
			"session", sessionID, "room", roomID, "error", err)
	}
}

// eventRoomID returns the room an event belongs to, empty when the kind
// carries none.
func eventRoomID(ev types.Interaction) string {
	switch e := ev.(type) {
	case types.PhotoEvent:
		return e.RoomID
	case types.CheckboxEvent:
		return e.RoomID
	case types.IssueEvent:
		return e.RoomID
	default:
		return ""
	}
}
