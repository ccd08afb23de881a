// Integration test for address/store synchronization: observed navigation
// lands in the session's navigation log, and a fresh session identifier is
// reconciled back into the address.
package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/walkabout/internal/navsync"
	"github.com/fieldops/walkabout/internal/recorder"
	"github.com/fieldops/walkabout/pkg/types"
)

func TestNavSync_NavigationReachesSessionLog(t *testing.T) {
	store, _ := newAttachedStore(t)
	defer store.Detach()

	record, err := store.Create("owner-1", "cabin-12", types.FlowDeparture, nil, nil)
	require.NoError(t, err)

	rec := recorder.New(store, nil)
	require.NoError(t, rec.SetActiveSession(record.SessionID))

	addr := navsync.NewMemoryAddress("/app/entry")
	cfg := types.Config{
		Backend:      types.BackendSQLite,
		PollInterval: 5 * time.Millisecond,
	}
	sync := navsync.New(store, addr, cfg, nil)
	sync.SetTracker(rec)
	sync.Start()
	defer sync.Stop()

	addr.Navigate(fmt.Sprintf("/app/checklist?subject=cabin-12&session=%s", record.SessionID))
	sync.Notify()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := store.Get(record.SessionID)
		require.NoError(t, err)
		if len(got.Progress.Interactions.NavigationLog) > 0 {
			assert.Equal(t, "checklist", got.Progress.Interactions.NavigationLog[0].Route)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("navigation never reached the session log")
}

func TestNavSync_ReconcileAfterCreation(t *testing.T) {
	store, _ := newAttachedStore(t)
	defer store.Detach()

	record, err := store.Create("owner-1", "cabin-12", types.FlowArrival, nil, nil)
	require.NoError(t, err)

	// Right after creation the address still lacks the session identifier.
	addr := navsync.NewMemoryAddress("/app/checklist?subject=cabin-12")
	sync := navsync.New(store, addr, types.Config{Backend: types.BackendSQLite}, nil)

	err = sync.ReconcileIdentifiersToAddress(navsync.Identifiers{
		SubjectID: "cabin-12",
		SessionID: record.SessionID,
	})
	require.NoError(t, err)

	ids, err := navsync.ParseIdentifiers(addr.Current())
	require.NoError(t, err)
	assert.Equal(t, record.SessionID, ids.SessionID)
	assert.Equal(t, "cabin-12", ids.SubjectID)

	c, err := sync.CheckConsistency()
	require.NoError(t, err)
	assert.True(t, c.Agree)
}
