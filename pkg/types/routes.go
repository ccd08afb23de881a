package types

// Route names the screens the navigation guard can direct a session to.
type Route string

// Screen routes.
const (
	RouteEntry            Route = "entry"
	RouteChecklist        Route = "checklist"
	RouteArrivalHome      Route = "arrival-home"
	RouteDepartureHome    Route = "departure-home"
	RouteInitialCondition Route = "initial-condition"
	RouteExitQuestions    Route = "exit-questions"
	RouteReport           Route = "report"
	RouteIssueList        Route = "issue-list"
	RouteIssueDetail      Route = "issue-detail"
)
