package types

import "time"

// Progress is the nested resume state of a session: the checklist cursor,
// the interaction maps, and the optional pre/post-flow step flags.
type Progress struct {
	CurrentRoomID    string `json:"current_room_id,omitempty"`
	CurrentTaskIndex int    `json:"current_task_index"`

	Interactions Interactions `json:"interactions"`

	InitialConditionDone bool `json:"initial_condition_done,omitempty"`
	ExitQuestionsDone    bool `json:"exit_questions_done,omitempty"`
}

// Interactions holds the independently-keyed interaction maps. Every map is
// merge-only: a write never removes keys written by a previous, unrelated
// write. List-valued categories append; object-valued categories replace
// only the entry at the specific key.
type Interactions struct {
	ButtonEvents   map[string][]ButtonEvent   `json:"button_events,omitempty"`
	PhotoEvents    map[string][]PhotoEvent    `json:"photo_events,omitempty"`
	CheckboxStates map[string]CheckboxEvent   `json:"checkbox_states,omitempty"`
	IssueReports   map[string]IssueEvent      `json:"issue_reports,omitempty"`
	RoomStates     map[string]RoomState       `json:"room_states,omitempty"`
	ExitAnswers    map[string]ExitAnswerEvent `json:"exit_answers,omitempty"`
	NavigationLog  []NavigationEvent          `json:"navigation_log,omitempty"`
}

// RoomState is the denormalized per-room aggregate kept for UI
// responsiveness. It is recomputable from the raw interaction maps at any
// time; the raw maps remain the source of truth.
type RoomState struct {
	RoomID            string    `json:"room_id"`
	PhotoCount        int       `json:"photo_count"`
	CheckboxCount     int       `json:"checkbox_count"`
	IssueCount        int       `json:"issue_count"`
	CompletionPercent int       `json:"completion_percent"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ChecklistRoom is one room of a checklist definition as supplied by the
// caller. The engine treats the definition as opaque apart from its shape.
type ChecklistRoom struct {
	RoomID    string
	TaskCount int
}

// ChecklistDef is the shape of the checklist a session was created against,
// used only to re-validate the progress cursor.
type ChecklistDef struct {
	Rooms []ChecklistRoom
}

// ValidateCursor re-validates the progress cursor against a checklist
// definition. If CurrentRoomID no longer names a room, the cursor resets to
// the first room at task zero. If CurrentTaskIndex is out of range for the
// room, it clamps to the last task. Returns true when the cursor was
// adjusted. A definition with no rooms clears the cursor entirely.
func (p *Progress) ValidateCursor(def ChecklistDef) bool {
	if len(def.Rooms) == 0 {
		changed := p.CurrentRoomID != "" || p.CurrentTaskIndex != 0
		p.CurrentRoomID = ""
		p.CurrentTaskIndex = 0
		return changed
	}

	var room *ChecklistRoom
	for i := range def.Rooms {
		if def.Rooms[i].RoomID == p.CurrentRoomID {
			room = &def.Rooms[i]
			break
		}
	}
	if room == nil {
		p.CurrentRoomID = def.Rooms[0].RoomID
		p.CurrentTaskIndex = 0
		return true
	}

	if p.CurrentTaskIndex < 0 {
		p.CurrentTaskIndex = 0
		return true
	}
	if p.CurrentTaskIndex >= room.TaskCount {
		if room.TaskCount == 0 {
			p.CurrentTaskIndex = 0
		} else {
			p.CurrentTaskIndex = room.TaskCount - 1
		}
		return true
	}
	return false
}

// RecomputeRoomState rebuilds the aggregate for one room from the raw
// interaction maps. Photo and checkbox counts consider events whose RoomID
// matches; completion percent is checkbox-driven against taskCount (zero
// taskCount yields zero percent).
func (ix *Interactions) RecomputeRoomState(roomID string, taskCount int) RoomState {
	state := RoomState{RoomID: roomID, UpdatedAt: time.Now().UTC()}

	for _, events := range ix.PhotoEvents {
		for _, ev := range events {
			if ev.RoomID == roomID {
				state.PhotoCount++
			}
		}
	}
	for _, ev := range ix.CheckboxStates {
		if ev.RoomID == roomID && ev.Checked {
			state.CheckboxCount++
		}
	}
	for _, ev := range ix.IssueReports {
		if ev.RoomID == roomID {
			state.IssueCount++
		}
	}
	if taskCount > 0 {
		done := state.CheckboxCount
		if done > taskCount {
			done = taskCount
		}
		state.CompletionPercent = done * 100 / taskCount
	}
	return state
}
