// Package game defines the domain model of the territorial conflict engine:
// players and their loyalist pools, the region graph, battles and their
// timing state machine, skirmish trees, movement orders, and the typed
// failure kinds every engine operation may return.
package game

import (
	"strings"
	"time"
)

// Team identifies one of the two armies contesting the map.
type Team int

const (
	TeamOrangered Team = iota
	TeamPeriwinkle
)

func (t Team) String() string {
	switch t {
	case TeamOrangered:
		return "orangered"
	case TeamPeriwinkle:
		return "periwinkle"
	}
	return "unknown"
}

// Enemy returns the opposing team.
func (t Team) Enemy() Team {
	if t == TeamOrangered {
		return TeamPeriwinkle
	}
	return TeamOrangered
}

// ParseTeam resolves a team from its name.
func ParseTeam(name string) (Team, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "orangered":
		return TeamOrangered, true
	case "periwinkle":
		return TeamPeriwinkle, true
	}
	return 0, false
}

// Rank orders a player's military authority. Invasions may only be
// launched by generals.
type Rank int

const (
	RankRecruit Rank = iota
	RankCaptain
	RankGeneral
)

func (r Rank) String() string {
	switch r {
	case RankCaptain:
		return "captain"
	case RankGeneral:
		return "general"
	}
	return "recruit"
}

// CanInvade reports whether the rank carries invasion authority.
func (r Rank) CanInvade() bool {
	return r >= RankGeneral
}

// ParseRank resolves a rank from its name.
func ParseRank(name string) (Rank, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "recruit":
		return RankRecruit, true
	case "captain":
		return RankCaptain, true
	case "general":
		return RankGeneral, true
	}
	return 0, false
}

// TroopType is the kind of loyalists committed to a skirmish.
type TroopType string

const (
	TroopInfantry TroopType = "infantry"
	TroopCavalry  TroopType = "cavalry"
	TroopRanged   TroopType = "ranged"
)

// Valid reports whether t is one of the three known troop types.
func (t TroopType) Valid() bool {
	return t == TroopInfantry || t == TroopCavalry || t == TroopRanged
}

// Side is the orientation of a skirmish node within a battle.
type Side int

const (
	SideOffense Side = iota
	SideDefense
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideOffense {
		return SideDefense
	}
	return SideOffense
}

// Player is a participant with a loyalist pool, a team, and a location.
// Loyalists is the total controllable troop population; Committed counts
// the portion reserved against unresolved skirmish commitments, so the
// invariant Committed <= Loyalists must hold after every operation.
type Player struct {
	ID         int64
	Name       string
	Team       Team
	Rank       Rank
	Leader     bool
	RegionID   int64 // encampment; unchanged while a movement order is open
	Loyalists  int
	Committed  int
	Defectable bool
}

// Uncommitted returns the loyalists available for new orders.
func (p *Player) Uncommitted() int {
	return p.Loyalists - p.Committed
}

// Region is a node of the territory graph. Adjacency is static
// configuration; Owner changes only through battle resolution.
type Region struct {
	ID       int64
	Name     string
	Channel  string // messaging-platform channel the region's threads post to
	Owner    Team
	Capital  *Team // set if this region is a team's capital
	Adjacent []int64
}

// IsAdjacent reports whether the region with the given id borders this one.
func (r *Region) IsAdjacent(id int64) bool {
	for _, a := range r.Adjacent {
		if a == id {
			return true
		}
	}
	return false
}

// Phase is a battle's position in its timing state machine.
type Phase int

const (
	PhaseScheduled Phase = iota
	PhaseActive
	PhaseLocked
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseScheduled:
		return "scheduled"
	case PhaseActive:
		return "active"
	case PhaseLocked:
		return "locked"
	}
	return "resolved"
}

// Battle is an unresolved invasion of a region. SubmissionID is empty
// until the announcement thread is confirmed posted; a battle without its
// announcement linkage must never be committed.
type Battle struct {
	ID           int64
	RegionID     int64
	Begins       time.Time
	Ends         time.Time
	Lockout      time.Duration // trailing window barring new top-level offensives
	SubmissionID string
	Resolved     bool
}

// Phase derives the battle's lifecycle state from the clock. The lockout
// window is the trailing Lockout duration before Ends.
func (b *Battle) Phase(now time.Time) Phase {
	if b.Resolved {
		return PhaseResolved
	}
	if now.Before(b.Begins) {
		return PhaseScheduled
	}
	if !now.Before(b.Ends.Add(-b.Lockout)) {
		return PhaseLocked
	}
	return PhaseActive
}

// SkirmishAction is a node of the recursive attack/support tree rooted at
// a battle. ParentID is zero for root (top-level) nodes. CommentID is the
// externally-posted reply id, empty until the reply is confirmed.
type SkirmishAction struct {
	ID        int64
	BattleID  int64
	ParentID  int64
	PlayerID  int64
	Amount    int
	TroopType TroopType
	Side      Side
	CommentID string
}

// IsRoot reports whether the node opens a top-level offensive.
func (s *SkirmishAction) IsRoot() bool {
	return s.ParentID == 0
}

// MovementOrder is an in-transit troop relocation. It exists only while
// the player is marching and is consumed upon arrival.
type MovementOrder struct {
	ID       int64
	PlayerID int64
	DestID   int64
	Amount   int
	Departs  time.Time
	Arrives  time.Time
}

// ProcessedMarker records an externally-sourced message id already
// examined during reply-thread reconciliation. Write-once.
type ProcessedMarker struct {
	MessageID string
	BattleID  int64
}
