package delivery

import (
	"errors"
	"testing"

	"github.com/fieldops/walkabout/internal/sqlite"
	"github.com/fieldops/walkabout/pkg/types"
)

func testStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore()
	err := s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Detach(); err != nil {
			t.Errorf("Detach failed: %v", err)
		}
	})
	return s
}

// delivererFunc adapts a function to the Deliverer interface.
type delivererFunc func(snapshot []byte, endpoint string) (string, error)

func (f delivererFunc) Deliver(snapshot []byte, endpoint string) (string, error) {
	return f(snapshot, endpoint)
}

func TestFinalizeStoresReportReference(t *testing.T) {
	s := testStore(t)
	record, err := s.Create("owner-1", "sub-1", types.FlowDeparture, nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var gotEndpoint string
	d := delivererFunc(func(snapshot []byte, endpoint string) (string, error) {
		gotEndpoint = endpoint
		if len(snapshot) == 0 {
			t.Error("empty snapshot handed to deliverer")
		}
		return "rpt-42", nil
	})

	got, err := Finalize(s, d, record.SessionID, "https://reports.example/generate", nil)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if got.Lifecycle != types.LifecycleTerminated {
		t.Errorf("lifecycle = %s, want terminated", got.Lifecycle)
	}
	if got.ReportReference != "rpt-42" {
		t.Errorf("report reference = %q, want rpt-42", got.ReportReference)
	}
	if gotEndpoint != "https://reports.example/generate" {
		t.Errorf("endpoint = %q", gotEndpoint)
	}
}

func TestFinalizeCommitsTerminationOnDeliveryFailure(t *testing.T) {
	s := testStore(t)
	record, err := s.Create("owner-1", "sub-1", types.FlowDeparture, nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	d := delivererFunc(func([]byte, string) (string, error) {
		return "", errors.New("endpoint unreachable")
	})

	got, err := Finalize(s, d, record.SessionID, "https://reports.example/generate", nil)
	if !errors.Is(err, types.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	// The warning comes with the record: the session is terminated anyway.
	if got == nil || got.Lifecycle != types.LifecycleTerminated {
		t.Fatalf("terminal transition must commit despite delivery failure: %+v", got)
	}
	if got.ReportReference != "" {
		t.Errorf("failed delivery must not store a report reference, got %q", got.ReportReference)
	}

	// Durably terminated, not just in the returned record.
	persisted, err := s.Get(record.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if persisted.Lifecycle != types.LifecycleTerminated {
		t.Errorf("persisted lifecycle = %s, want terminated", persisted.Lifecycle)
	}
}

func TestFinalizeWithoutDeliverer(t *testing.T) {
	s := testStore(t)
	record, err := s.Create("owner-1", "sub-1", types.FlowArrival, nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := Finalize(s, nil, record.SessionID, "", nil)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if got.Lifecycle != types.LifecycleTerminated {
		t.Errorf("lifecycle = %s, want terminated", got.Lifecycle)
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	s := testStore(t)
	d := delivererFunc(func([]byte, string) (string, error) { return "rpt-1", nil })

	_, err := Finalize(s, d, "missing", "https://reports.example/generate", nil)
	if !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
