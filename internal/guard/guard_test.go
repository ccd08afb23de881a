package guard

import (
	"testing"

	"github.com/fieldops/walkabout/pkg/types"
)

func record(flow, lifecycle string, mutate ...func(*types.SessionRecord)) *types.SessionRecord {
	r := &types.SessionRecord{
		SessionID: "s-1",
		FlowKind:  flow,
		Lifecycle: lifecycle,
	}
	for _, m := range mutate {
		m(r)
	}
	return r
}

func workflowComplete(r *types.SessionRecord)     { r.IsWorkflowComplete = true }
func exitQuestionsDone(r *types.SessionRecord)    { r.Progress.ExitQuestionsDone = true }
func initialConditionDone(r *types.SessionRecord) { r.Progress.InitialConditionDone = true }

func TestCanonicalRoute(t *testing.T) {
	gated := Options{RequireInitialCondition: true}

	cases := []struct {
		name   string
		record *types.SessionRecord
		opts   Options
		want   types.Route
	}{
		{"nil record", nil, Options{}, types.RouteEntry},
		{"unknown lifecycle", record(types.FlowArrival, "corrupt"), Options{}, types.RouteEntry},
		{"unknown flow kind", record("sideways", types.LifecycleActive), Options{}, types.RouteEntry},

		{"terminated arrival", record(types.FlowArrival, types.LifecycleTerminated), Options{}, types.RouteReport},
		{"terminated departure", record(types.FlowDeparture, types.LifecycleTerminated), Options{}, types.RouteReport},
		{"cancelled departure", record(types.FlowDeparture, types.LifecycleCancelled), Options{}, types.RouteEntry},

		{"completed arrival", record(types.FlowArrival, types.LifecycleCompleted), Options{}, types.RouteArrivalHome},
		{"completed departure", record(types.FlowDeparture, types.LifecycleCompleted), Options{}, types.RouteEntry},

		{"active arrival mid-checklist", record(types.FlowArrival, types.LifecycleActive), Options{}, types.RouteChecklist},
		{"active arrival workflow complete", record(types.FlowArrival, types.LifecycleActive, workflowComplete), Options{}, types.RouteArrivalHome},

		{"active departure mid-checklist", record(types.FlowDeparture, types.LifecycleActive), Options{}, types.RouteChecklist},
		{"active departure workflow complete", record(types.FlowDeparture, types.LifecycleActive, workflowComplete), Options{}, types.RouteExitQuestions},
		{"active departure exit questions done", record(types.FlowDeparture, types.LifecycleActive, workflowComplete, exitQuestionsDone), Options{}, types.RouteDepartureHome},

		// The inspection gate outranks everything on a departure flow.
		{"gated departure fresh", record(types.FlowDeparture, types.LifecycleActive), gated, types.RouteInitialCondition},
		{"gated departure workflow complete", record(types.FlowDeparture, types.LifecycleActive, workflowComplete), gated, types.RouteInitialCondition},
		{"gated departure inspection done", record(types.FlowDeparture, types.LifecycleActive, initialConditionDone), gated, types.RouteChecklist},
		// The gate never applies to arrival flows.
		{"gated arrival fresh", record(types.FlowArrival, types.LifecycleActive), gated, types.RouteChecklist},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalRoute(tc.record, tc.opts); got != tc.want {
				t.Errorf("CanonicalRoute = %s, want %s", got, tc.want)
			}
		})
	}
}

// TestCanonicalRouteIsTotal enumerates every lifecycle, flow kind, and flag
// combination, including unrecognized values, and checks the decision
// always produces a non-empty route.
func TestCanonicalRouteIsTotal(t *testing.T) {
	lifecycles := []string{
		types.LifecycleActive, types.LifecycleCompleted,
		types.LifecycleTerminated, types.LifecycleCancelled,
		"", "garbage",
	}
	flows := []string{types.FlowArrival, types.FlowDeparture, "", "garbage"}
	bools := []bool{false, true}

	for _, lc := range lifecycles {
		for _, fk := range flows {
			for _, wc := range bools {
				for _, eq := range bools {
					for _, ic := range bools {
						for _, gate := range bools {
							r := record(fk, lc)
							r.IsWorkflowComplete = wc
							r.Progress.ExitQuestionsDone = eq
							r.Progress.InitialConditionDone = ic
							opts := Options{RequireInitialCondition: gate}

							route := CanonicalRoute(r, opts)
							if route == "" {
								t.Fatalf("empty route for lifecycle=%q flow=%q", lc, fk)
							}
							if !AllowedRoutes(r, opts)[route] {
								t.Fatalf("canonical route %s not in allowed set for lifecycle=%q flow=%q", route, lc, fk)
							}
						}
					}
				}
			}
		}
	}
}

func TestAllowedRoutesGlobals(t *testing.T) {
	// Issue screens and the entry screen stay reachable in every state.
	records := []*types.SessionRecord{
		nil,
		record(types.FlowArrival, types.LifecycleActive),
		record(types.FlowDeparture, types.LifecycleActive),
		record(types.FlowDeparture, types.LifecycleTerminated),
		record(types.FlowArrival, types.LifecycleCompleted),
	}
	for _, r := range records {
		allowed := AllowedRoutes(r, Options{RequireInitialCondition: true})
		for _, route := range []types.Route{types.RouteEntry, types.RouteIssueList, types.RouteIssueDetail} {
			if !allowed[route] {
				t.Errorf("global route %s missing for record %+v", route, r)
			}
		}
	}
}

func TestAllowedRoutesLaterals(t *testing.T) {
	// An active departure past the gate can hop between its own screens.
	r := record(types.FlowDeparture, types.LifecycleActive, initialConditionDone)
	allowed := AllowedRoutes(r, Options{RequireInitialCondition: true})
	for _, route := range []types.Route{types.RouteChecklist, types.RouteDepartureHome, types.RouteExitQuestions} {
		if !allowed[route] {
			t.Errorf("lateral route %s missing", route)
		}
	}

	// Before the gate, only the inspection screen and globals are open.
	fresh := record(types.FlowDeparture, types.LifecycleActive)
	allowed = AllowedRoutes(fresh, Options{RequireInitialCondition: true})
	if allowed[types.RouteChecklist] {
		t.Error("checklist reachable before the inspection gate")
	}
	if !allowed[types.RouteInitialCondition] {
		t.Error("inspection screen not reachable while gated")
	}

	// Terminated sessions lose all laterals; only report and globals remain.
	done := record(types.FlowDeparture, types.LifecycleTerminated)
	allowed = AllowedRoutes(done, Options{})
	if allowed[types.RouteChecklist] || allowed[types.RouteExitQuestions] {
		t.Error("terminated session still has lateral routes")
	}
	if !allowed[types.RouteReport] {
		t.Error("report screen not reachable after termination")
	}
}

func TestShouldRedirect(t *testing.T) {
	r := record(types.FlowDeparture, types.LifecycleActive, workflowComplete)

	redirect, to := ShouldRedirect(types.RouteChecklist, r, Options{})
	if redirect {
		t.Errorf("checklist is lateral here, got redirect to %s", to)
	}

	redirect, to = ShouldRedirect(types.RouteArrivalHome, r, Options{})
	if !redirect || to != types.RouteExitQuestions {
		t.Errorf("expected redirect to exit questions, got (%v, %s)", redirect, to)
	}

	// Nil record: anything unknown bounces to entry.
	redirect, to = ShouldRedirect(types.RouteChecklist, nil, Options{})
	if !redirect || to != types.RouteEntry {
		t.Errorf("expected redirect to entry, got (%v, %s)", redirect, to)
	}
}
