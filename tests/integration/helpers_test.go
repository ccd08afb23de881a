// Package integration exercises full workflow scenarios across the
// session store, recorder, guard, synchronizer, and delivery boundary.
package integration

import (
	"testing"

	"github.com/fieldops/walkabout/internal/sqlite"
	"github.com/fieldops/walkabout/pkg/types"
)

// newAttachedStore creates a store attached to an isolated temp directory.
// Each test gets its own store instance for isolation.
func newAttachedStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	store := sqlite.NewStore()
	err := store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	return store, dataDir
}

// attachAt attaches a fresh store instance to an existing data directory,
// modeling a process restart.
func attachAt(t *testing.T, dataDir string) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore()
	err := store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	return store
}
