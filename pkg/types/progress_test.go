package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCursor(t *testing.T) {
	def := ChecklistDef{Rooms: []ChecklistRoom{
		{RoomID: "kitchen", TaskCount: 3},
		{RoomID: "bathroom", TaskCount: 2},
	}}

	tests := []struct {
		name        string
		progress    Progress
		wantRoom    string
		wantIndex   int
		wantChanged bool
	}{
		{
			name:     "valid cursor untouched",
			progress: Progress{CurrentRoomID: "bathroom", CurrentTaskIndex: 1},
			wantRoom: "bathroom", wantIndex: 1,
		},
		{
			name:     "unknown room resets to first room",
			progress: Progress{CurrentRoomID: "garage", CurrentTaskIndex: 1},
			wantRoom: "kitchen", wantIndex: 0, wantChanged: true,
		},
		{
			name:     "index past the end clamps to last task",
			progress: Progress{CurrentRoomID: "kitchen", CurrentTaskIndex: 7},
			wantRoom: "kitchen", wantIndex: 2, wantChanged: true,
		},
		{
			name:     "negative index clamps to zero",
			progress: Progress{CurrentRoomID: "kitchen", CurrentTaskIndex: -1},
			wantRoom: "kitchen", wantIndex: 0, wantChanged: true,
		},
		{
			name:     "empty cursor adopts first room",
			progress: Progress{},
			wantRoom: "kitchen", wantIndex: 0, wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := tt.progress.ValidateCursor(def)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantRoom, tt.progress.CurrentRoomID)
			assert.Equal(t, tt.wantIndex, tt.progress.CurrentTaskIndex)
		})
	}
}

func TestValidateCursorEmptyDefinition(t *testing.T) {
	p := Progress{CurrentRoomID: "kitchen", CurrentTaskIndex: 2}
	assert.True(t, p.ValidateCursor(ChecklistDef{}))
	assert.Empty(t, p.CurrentRoomID)
	assert.Zero(t, p.CurrentTaskIndex)
}

func TestRecomputeRoomState(t *testing.T) {
	var ix Interactions
	ix.Apply(PhotoEvent{PhotoID: "p1", TaskID: "t1", RoomID: "kitchen"})
	ix.Apply(PhotoEvent{PhotoID: "p2", TaskID: "t1", RoomID: "kitchen"})
	ix.Apply(PhotoEvent{PhotoID: "p3", TaskID: "t4", RoomID: "bathroom"})
	ix.Apply(CheckboxEvent{TaskID: "t1", RoomID: "kitchen", Checked: true})
	ix.Apply(CheckboxEvent{TaskID: "t2", RoomID: "kitchen", Checked: false})
	ix.Apply(IssueEvent{IssueID: "i1", RoomID: "kitchen"})

	state := ix.RecomputeRoomState("kitchen", 4)

	assert.Equal(t, "kitchen", state.RoomID)
	assert.Equal(t, 2, state.PhotoCount, "only kitchen photos counted")
	assert.Equal(t, 1, state.CheckboxCount, "unchecked boxes do not count")
	assert.Equal(t, 1, state.IssueCount)
	assert.Equal(t, 25, state.CompletionPercent)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestRecomputeRoomStateZeroTasks(t *testing.T) {
	var ix Interactions
	state := ix.RecomputeRoomState("kitchen", 0)
	assert.Zero(t, state.CompletionPercent)
}
