package types

import "time"

// Interaction event kinds, used as the tag of the event union.
const (
	KindButton     = "button"
	KindPhoto      = "photo"
	KindCheckbox   = "checkbox"
	KindIssue      = "issue"
	KindRoomState  = "room_state"
	KindExitAnswer = "exit_answer"
	KindNavigation = "navigation"
)

// Interaction is the closed union of recordable event kinds. Each kind
// carries its own merge rule: apply mutates exactly one entry of the
// Interactions maps and never removes sibling keys. The unexported method
// keeps the union closed to this package.
type Interaction interface {
	// Kind returns the event kind tag.
	Kind() string

	// MergeKey returns the map key the event merges under. Events that
	// append to an unkeyed log return the empty string.
	MergeKey() string

	apply(ix *Interactions)
}

// ButtonEvent is one button press. Append-only: presses accumulate behind
// the button identifier.
type ButtonEvent struct {
	ButtonID  string    `json:"button_id"`
	TaskID    string    `json:"task_id,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	Value     string    `json:"value,omitempty"`
	PressedAt time.Time `json:"pressed_at"`
}

func (e ButtonEvent) Kind() string     { return KindButton }
func (e ButtonEvent) MergeKey() string { return e.ButtonID }

func (e ButtonEvent) apply(ix *Interactions) {
	if ix.ButtonEvents == nil {
		ix.ButtonEvents = make(map[string][]ButtonEvent)
	}
	ix.ButtonEvents[e.ButtonID] = append(ix.ButtonEvents[e.ButtonID], e)
}

// PhotoEvent is one captured photo as produced by the capture pipeline.
// The engine stores PayloadRef opaquely. Append-only behind the task.
type PhotoEvent struct {
	PhotoID     string    `json:"photo_id"`
	TaskID      string    `json:"task_id"`
	RoomID      string    `json:"room_id"`
	PayloadRef  string    `json:"payload_ref"`
	TakenAt     time.Time `json:"taken_at"`
	Validated   bool      `json:"validated"`
	RetakeCount int       `json:"retake_count"`
}

func (e PhotoEvent) Kind() string     { return KindPhoto }
func (e PhotoEvent) MergeKey() string { return e.TaskID }

func (e PhotoEvent) apply(ix *Interactions) {
	if ix.PhotoEvents == nil {
		ix.PhotoEvents = make(map[string][]PhotoEvent)
	}
	ix.PhotoEvents[e.TaskID] = append(ix.PhotoEvents[e.TaskID], e)
}

// CheckboxEvent is the latest state of one checkbox. Keyed replace: only
// the entry for this task changes.
type CheckboxEvent struct {
	TaskID    string    `json:"task_id"`
	RoomID    string    `json:"room_id,omitempty"`
	Checked   bool      `json:"checked"`
	CheckedAt time.Time `json:"checked_at"`
}

func (e CheckboxEvent) Kind() string     { return KindCheckbox }
func (e CheckboxEvent) MergeKey() string { return e.TaskID }

func (e CheckboxEvent) apply(ix *Interactions) {
	if ix.CheckboxStates == nil {
		ix.CheckboxStates = make(map[string]CheckboxEvent)
	}
	ix.CheckboxStates[e.TaskID] = e
}

// IssueEvent is the latest state of one reported issue, keyed by issue
// identifier.
type IssueEvent struct {
	IssueID     string    `json:"issue_id"`
	TaskID      string    `json:"task_id,omitempty"`
	RoomID      string    `json:"room_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	ReportedAt  time.Time `json:"reported_at"`
}

func (e IssueEvent) Kind() string     { return KindIssue }
func (e IssueEvent) MergeKey() string { return e.IssueID }

func (e IssueEvent) apply(ix *Interactions) {
	if ix.IssueReports == nil {
		ix.IssueReports = make(map[string]IssueEvent)
	}
	ix.IssueReports[e.IssueID] = e
}

// RoomStateEvent carries a recomputed room aggregate. Keyed replace.
type RoomStateEvent struct {
	State RoomState `json:"state"`
}

func (e RoomStateEvent) Kind() string     { return KindRoomState }
func (e RoomStateEvent) MergeKey() string { return e.State.RoomID }

func (e RoomStateEvent) apply(ix *Interactions) {
	if ix.RoomStates == nil {
		ix.RoomStates = make(map[string]RoomState)
	}
	ix.RoomStates[e.State.RoomID] = e.State
}

// ExitAnswerEvent is the latest answer to one exit question.
type ExitAnswerEvent struct {
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

func (e ExitAnswerEvent) Kind() string     { return KindExitAnswer }
func (e ExitAnswerEvent) MergeKey() string { return e.QuestionID }

func (e ExitAnswerEvent) apply(ix *Interactions) {
	if ix.ExitAnswers == nil {
		ix.ExitAnswers = make(map[string]ExitAnswerEvent)
	}
	ix.ExitAnswers[e.QuestionID] = e
}

// NavigationEvent is one observed route change. Appended to the unkeyed
// navigation log.
type NavigationEvent struct {
	Route      string    `json:"route"`
	ObservedAt time.Time `json:"observed_at"`
}

func (e NavigationEvent) Kind() string     { return KindNavigation }
func (e NavigationEvent) MergeKey() string { return "" }

func (e NavigationEvent) apply(ix *Interactions) {
	ix.NavigationLog = append(ix.NavigationLog, e)
}

// Apply merges one event into the interaction maps under its kind's merge
// rule. Sibling keys are never touched.
func (ix *Interactions) Apply(ev Interaction) {
	ev.apply(ix)
}
