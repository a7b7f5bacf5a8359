package game

import "fmt"

// The engine reports every domain rule violation as one of the typed
// failures below. Callers match them with errors.As and render the
// user-facing reply; none of them is fatal to the process.

// RankError means the actor lacks the authority the action requires.
type RankError struct {
	Required Rank
}

func (e *RankError) Error() string {
	return fmt.Sprintf("requires rank %s or above", e.Required)
}

// TeamError means the action targets the wrong team: attacking a friend
// (Friendly true) or aiding the enemy / moving into enemy land (Friendly
// false).
type TeamError struct {
	Friendly bool
}

func (e *TeamError) Error() string {
	if e.Friendly {
		return "action targets your own team"
	}
	return "action aids the enemy team"
}

// NonAdjacentError means the actor's current region does not border the
// target region.
type NonAdjacentError struct {
	From *Region
	To   *Region
}

func (e *NonAdjacentError) Error() string {
	return fmt.Sprintf("%s is not adjacent to %s", e.From.Name, e.To.Name)
}

// InProgressError means an exclusivity invariant blocks the action.
// Exactly one of Battle or Order is set, so the caller can tell a
// standing battle commitment from an open movement order.
type InProgressError struct {
	Battle *Battle
	Order  *MovementOrder
}

func (e *InProgressError) Error() string {
	if e.Order != nil {
		return "a movement order is already underway"
	}
	return "a battle commitment is already in progress"
}

// InsufficientError means the troop amount is non-positive or exceeds the
// player's uncommitted loyalist pool.
type InsufficientError struct {
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("requested %d troops, %d available", e.Requested, e.Available)
}

// NotPresentError means the actor is not located where the action
// requires. Region is where they actually are; Moving is set if they are
// in transit so the caller can report destination and arrival.
type NotPresentError struct {
	Region *Region
	Moving *MovementOrder
}

func (e *NotPresentError) Error() string {
	return fmt.Sprintf("not present; currently in %s", e.Region.Name)
}

// Timing window sides for TimingError.
const (
	TimingEarly = "early"
	TimingLate  = "late"
)

// TimingError means the action was attempted outside its valid time
// window: before a battle begins (early) or inside the lockout window,
// after resolution, or after the actor forfeited eligibility (late).
type TimingError struct {
	Side string
}

func (e *TimingError) Error() string {
	if e.Side == TimingEarly {
		return "too early for this action"
	}
	return "too late for this action"
}
