package core

import "errors"

// Sentinel errors returned by the planner facade and its components.
// Callers compare against these with errors.Is; internal code wraps them
// with github.com/pkg/errors to attach positional context.
var (
	// ErrGoalForbidden is returned by setGoal when the goal cell or one of
	// its four neighbours has terrain class 0 (hard obstacle).
	ErrGoalForbidden = errors.New("core: goal or a neighbouring cell is forbidden terrain")

	// ErrUnreachable is returned by path extraction when the FM solver
	// finished with totalCost(start) == +Inf.
	ErrUnreachable = errors.New("core: start cell is unreachable from goal")

	// ErrPathDiverged is returned when gradient descent exceeds its step
	// budget or produces a NaN; a partial trajectory is still returned.
	ErrPathDiverged = errors.New("core: path extraction diverged")

	// ErrNearHidden names the case of a waypoint next to a cell whose
	// terrain has never been observed. Cells carry no unobserved state in
	// this engine, so no component returns it.
	ErrNearHidden = errors.New("core: waypoint adjacent to unobserved terrain")

	// ErrLocalRepairFailed is returned when the local FM re-solve could not
	// find a valid exit cell within the materialised patch set.
	ErrLocalRepairFailed = errors.New("core: local repair found no valid exit")

	// ErrNotReentrant is returned when a facade operation is invoked while
	// another is already in progress on the same Planner value.
	ErrNotReentrant = errors.New("core: planner facade is not re-entrant")
)
