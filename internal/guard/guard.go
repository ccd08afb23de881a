// Package guard decides the canonical route for a session record and
// whether a candidate route is currently permitted. Pure: no I/O, no side
// effects, and it never fails; unrecognized state resolves to the entry
// screen because this sits on the critical render path.
// See docs/ARCHITECTURE.md § Navigation Guard.
package guard

import "github.com/fieldops/walkabout/pkg/types"

// Options carries the configuration bits the route decision depends on.
type Options struct {
	// RequireInitialCondition gates the pre-flow inspection step on
	// departure flows.
	RequireInitialCondition bool
}

// globalRoutes are permitted for every session state.
var globalRoutes = map[types.Route]bool{
	types.RouteEntry:       true,
	types.RouteIssueList:   true,
	types.RouteIssueDetail: true,
}

// CanonicalRoute returns the single screen the operator should be on for
// this record. A nil or corrupt record maps to the entry screen.
func CanonicalRoute(record *types.SessionRecord, opts Options) types.Route {
	if record == nil {
		return types.RouteEntry
	}

	switch record.Lifecycle {
	case types.LifecycleTerminated:
		return types.RouteReport

	case types.LifecycleCompleted:
		if record.FlowKind == types.FlowArrival {
			return types.RouteArrivalHome
		}
		return types.RouteEntry

	case types.LifecycleActive:
		switch record.FlowKind {
		case types.FlowArrival:
			if record.IsWorkflowComplete {
				return types.RouteArrivalHome
			}
			return types.RouteChecklist

		case types.FlowDeparture:
			// Strict priority order.
			if opts.RequireInitialCondition && !record.Progress.InitialConditionDone {
				return types.RouteInitialCondition
			}
			if record.Progress.ExitQuestionsDone {
				return types.RouteDepartureHome
			}
			if record.IsWorkflowComplete {
				return types.RouteExitQuestions
			}
			return types.RouteChecklist
		}
	}

	return types.RouteEntry
}

// AllowedRoutes returns the set of permitted routes for the record: the
// globally-allowed screens plus the lateral screens of the current
// lifecycle and flow kind. The canonical route is always a member.
func AllowedRoutes(record *types.SessionRecord, opts Options) map[types.Route]bool {
	allowed := make(map[types.Route]bool, len(globalRoutes)+3)
	for r := range globalRoutes {
		allowed[r] = true
	}
	allowed[CanonicalRoute(record, opts)] = true

	if record == nil || record.Lifecycle != types.LifecycleActive {
		return allowed
	}

	switch record.FlowKind {
	case types.FlowArrival:
		allowed[types.RouteChecklist] = true
		allowed[types.RouteArrivalHome] = true

	case types.FlowDeparture:
		if opts.RequireInitialCondition && !record.Progress.InitialConditionDone {
			// The inspection step gates everything else.
			break
		}
		allowed[types.RouteChecklist] = true
		allowed[types.RouteDepartureHome] = true
		allowed[types.RouteExitQuestions] = true
	}
	return allowed
}

// IsRouteAllowed reports whether the candidate route is permitted for the
// record's current state.
func IsRouteAllowed(candidate types.Route, record *types.SessionRecord, opts Options) bool {
	return AllowedRoutes(record, opts)[candidate]
}

// ShouldRedirect reports whether the candidate route must be abandoned,
// and if so the canonical route to redirect to.
func ShouldRedirect(candidate types.Route, record *types.SessionRecord, opts Options) (bool, types.Route) {
	if IsRouteAllowed(candidate, record, opts) {
		return false, candidate
	}
	return true, CanonicalRoute(record, opts)
}
