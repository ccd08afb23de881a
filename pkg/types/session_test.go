package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRecordComplete(t *testing.T) {
	tests := []struct {
		name        string
		initial     string
		wantApplied bool
	}{
		{name: "from active succeeds", initial: LifecycleActive, wantApplied: true},
		{name: "from completed is a no-op", initial: LifecycleCompleted},
		{name: "from terminated is a no-op", initial: LifecycleTerminated},
		{name: "from cancelled is a no-op", initial: LifecycleCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &SessionRecord{
				SessionID: "complete-test",
				Lifecycle: tt.initial,
				CreatedAt: time.Now(),
			}

			applied := record.Complete()

			if tt.wantApplied {
				assert.True(t, applied)
				assert.Equal(t, LifecycleCompleted, record.Lifecycle)
				assert.NotNil(t, record.CompletedAt, "CompletedAt should be set")
				assert.WithinDuration(t, time.Now(), *record.CompletedAt, time.Second)
			} else {
				assert.False(t, applied)
				assert.Equal(t, tt.initial, record.Lifecycle, "terminal state must not change")
				assert.Nil(t, record.CompletedAt, "CompletedAt should remain nil on no-op")
			}
		})
	}
}

func TestSessionRecordTerminate(t *testing.T) {
	record := &SessionRecord{SessionID: "terminate-test", Lifecycle: LifecycleActive}

	applied := record.Terminate("rpt-123")
	assert.True(t, applied)
	assert.Equal(t, LifecycleTerminated, record.Lifecycle)
	assert.Equal(t, "rpt-123", record.ReportReference)
	assert.NotNil(t, record.TerminatedAt)

	firstTerminatedAt := *record.TerminatedAt

	// Second call leaves everything untouched, report reference included.
	applied = record.Terminate("rpt-456")
	assert.False(t, applied)
	assert.Equal(t, "rpt-123", record.ReportReference)
	assert.Equal(t, firstTerminatedAt, *record.TerminatedAt, "timestamp unchanged on second call")
}

func TestSessionRecordTerminateWithoutReference(t *testing.T) {
	record := &SessionRecord{Lifecycle: LifecycleActive}
	assert.True(t, record.Terminate(""))
	assert.Empty(t, record.ReportReference)
}

func TestSessionRecordCancel(t *testing.T) {
	record := &SessionRecord{Lifecycle: LifecycleActive}
	assert.True(t, record.Cancel())
	assert.Equal(t, LifecycleCancelled, record.Lifecycle)

	// No transition out of a terminal state.
	assert.False(t, record.Complete())
	assert.Equal(t, LifecycleCancelled, record.Lifecycle)
}

func TestSessionRecordIsTerminal(t *testing.T) {
	for lifecycle, want := range map[string]bool{
		LifecycleActive:     false,
		LifecycleCompleted:  true,
		LifecycleTerminated: true,
		LifecycleCancelled:  true,
	} {
		record := &SessionRecord{Lifecycle: lifecycle}
		assert.Equal(t, want, record.IsTerminal(), "lifecycle %s", lifecycle)
	}
}

func TestValidFlowKind(t *testing.T) {
	assert.True(t, ValidFlowKind(FlowArrival))
	assert.True(t, ValidFlowKind(FlowDeparture))
	assert.False(t, ValidFlowKind(""))
	assert.False(t, ValidFlowKind("sideways"))
}

func TestSessionRecordTouch(t *testing.T) {
	record := &SessionRecord{Lifecycle: LifecycleActive}
	record.Touch()
	assert.WithinDuration(t, time.Now(), record.LastActiveAt, time.Second)
}
