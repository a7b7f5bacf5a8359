package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// world is the fixture map: two capitals bridged by a contested middle
// region, plus an orangered hinterland only reachable from the capital.
type world struct {
	eng    *Engine
	st     *store.Store
	now    time.Time
	ctx    context.Context
	tx     *store.Tx
	capOR  *game.Region // orangered capital
	capPW  *game.Region // periwinkle capital
	middle *game.Region // periwinkle-owned, adjacent to both capitals
	rear   *game.Region // orangered-owned, adjacent to capOR only
	genOR  *game.Player // orangered general at capOR
	recOR  *game.Player // orangered recruit at capOR
	recPW  *game.Player // periwinkle recruit at middle
}

func newWorld(t *testing.T, cfg Config) *world {
	t.Helper()

	if cfg.Username == "" {
		cfg.Username = "chromabot"
	}
	eng, err := New(cfg)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	eng.clock = func() time.Time { return now }

	st, err := store.Open(store.DialectSQLite, filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })

	w := &world{eng: eng, st: st, now: now, ctx: ctx, tx: tx}

	orangered := game.TeamOrangered
	periwinkle := game.TeamPeriwinkle
	w.capOR = &game.Region{Name: "oraistedarg", Channel: "oraistedarg", Owner: orangered, Capital: &orangered}
	w.capPW = &game.Region{Name: "periopolis", Channel: "periopolis", Owner: periwinkle, Capital: &periwinkle}
	w.middle = &game.Region{Name: "sapphire", Channel: "sapphire", Owner: periwinkle}
	w.rear = &game.Region{Name: "snooland", Channel: "snooland", Owner: orangered}
	for _, r := range []*game.Region{w.capOR, w.capPW, w.middle, w.rear} {
		require.NoError(t, tx.CreateRegion(ctx, r))
	}
	require.NoError(t, tx.AddAdjacency(ctx, w.capOR.ID, w.middle.ID))
	require.NoError(t, tx.AddAdjacency(ctx, w.capPW.ID, w.middle.ID))
	require.NoError(t, tx.AddAdjacency(ctx, w.capOR.ID, w.rear.ID))

	w.genOR = &game.Player{Name: "mehungry", Team: orangered, Rank: game.RankGeneral,
		RegionID: w.capOR.ID, Loyalists: 100, Defectable: true}
	w.recOR = &game.Player{Name: "fullfresh", Team: orangered, Rank: game.RankRecruit,
		RegionID: w.capOR.ID, Loyalists: 100, Defectable: true}
	w.recPW = &game.Player{Name: "mesocold", Team: periwinkle, Rank: game.RankRecruit,
		RegionID: w.middle.ID, Loyalists: 100, Defectable: true}
	for _, p := range []*game.Player{w.genOR, w.recOR, w.recPW} {
		require.NoError(t, tx.CreatePlayer(ctx, p))
	}

	// Reload adjacency now that every edge exists.
	for _, r := range []*game.Region{w.capOR, w.capPW, w.middle, w.rear} {
		fresh, err := tx.RegionByID(ctx, r.ID)
		require.NoError(t, err)
		*r = *fresh
	}
	return w
}

// setNow moves the fixture clock.
func (w *world) setNow(t time.Time) {
	w.now = t
	w.eng.clock = func() time.Time { return t }
}

func defaultConfig() Config {
	return Config{
		BattleDelay:    24 * time.Hour,
		BattleDuration: 48 * time.Hour,
		BattleLockout:  time.Hour,
		MoveSpeed:      8 * time.Hour,
	}
}

func TestInvadeCreatesScheduledBattle(t *testing.T) {
	w := newWorld(t, defaultConfig())

	begins := w.now.Add(w.eng.Config().BattleDelay)
	battle, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.middle, begins)
	require.NoError(t, err)

	assert.Equal(t, w.middle.ID, battle.RegionID)
	assert.Equal(t, begins, battle.Begins)
	assert.Equal(t, begins.Add(48*time.Hour), battle.Ends)
	assert.Equal(t, game.PhaseScheduled, battle.Phase(w.now))
	assert.Equal(t, game.PhaseActive, battle.Phase(begins))
	assert.Equal(t, game.PhaseLocked, battle.Phase(battle.Ends.Add(-30*time.Minute)))

	// The invader has acted and may no longer defect.
	fresh, err := w.tx.PlayerByID(w.ctx, w.genOR.ID)
	require.NoError(t, err)
	assert.False(t, fresh.Defectable)
}

func TestInvadeRequiresRank(t *testing.T) {
	w := newWorld(t, defaultConfig())

	_, err := w.eng.Invade(w.ctx, w.tx, w.recOR, w.middle, w.now)
	var rankErr *game.RankError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, game.RankGeneral, rankErr.Required)
}

func TestInvadeLeaderWithoutRank(t *testing.T) {
	w := newWorld(t, defaultConfig())

	w.recOR.Leader = true
	_, err := w.eng.Invade(w.ctx, w.tx, w.recOR, w.middle, w.now)
	assert.NoError(t, err)
}

func TestInvadeOwnTerritory(t *testing.T) {
	w := newWorld(t, defaultConfig())

	_, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.rear, w.now)
	var teamErr *game.TeamError
	require.ErrorAs(t, err, &teamErr)
	assert.True(t, teamErr.Friendly)
}

func TestInvadeNonAdjacent(t *testing.T) {
	w := newWorld(t, defaultConfig())

	// The periwinkle capital does not border the orangered one.
	_, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.capPW, w.now)
	var adjErr *game.NonAdjacentError
	require.ErrorAs(t, err, &adjErr)
	assert.Equal(t, w.capOR.ID, adjErr.From.ID)
}

func TestInvadeAlreadyContested(t *testing.T) {
	w := newWorld(t, defaultConfig())

	first, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.middle, w.now)
	require.NoError(t, err)

	_, err = w.eng.Invade(w.ctx, w.tx, w.genOR, w.middle, w.now)
	var busyErr *game.InProgressError
	require.ErrorAs(t, err, &busyErr)
	require.NotNil(t, busyErr.Battle)
	assert.Equal(t, first.ID, busyErr.Battle.ID)
}

func TestConfirmSubmission(t *testing.T) {
	w := newWorld(t, defaultConfig())

	battle, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.middle, w.now)
	require.NoError(t, err)
	require.NoError(t, w.eng.ConfirmSubmission(w.ctx, w.tx, battle, "t3_abc123"))

	found, err := w.tx.BattleBySubmission(w.ctx, "t3_abc123")
	require.NoError(t, err)
	assert.Equal(t, battle.ID, found.ID)
}

func TestDefectSwitchesTeamAndRelocates(t *testing.T) {
	w := newWorld(t, defaultConfig())

	require.NoError(t, w.eng.Defect(w.ctx, w.tx, w.recOR, game.TeamPeriwinkle))
	assert.Equal(t, game.TeamPeriwinkle, w.recOR.Team)
	assert.Equal(t, w.capPW.ID, w.recOR.RegionID)
}

func TestDefectToOwnTeam(t *testing.T) {
	w := newWorld(t, defaultConfig())

	err := w.eng.Defect(w.ctx, w.tx, w.recOR, game.TeamOrangered)
	var teamErr *game.TeamError
	require.ErrorAs(t, err, &teamErr)
	assert.True(t, teamErr.Friendly)
}

func TestDefectAfterActing(t *testing.T) {
	w := newWorld(t, defaultConfig())

	_, err := w.eng.Invade(w.ctx, w.tx, w.genOR, w.middle, w.now)
	require.NoError(t, err)

	err = w.eng.Defect(w.ctx, w.tx, w.genOR, game.TeamPeriwinkle)
	var timeErr *game.TimingError
	require.ErrorAs(t, err, &timeErr)
	assert.Equal(t, game.TimingLate, timeErr.Side)
}

func TestPromoteAndDemote(t *testing.T) {
	w := newWorld(t, defaultConfig())

	target, err := w.eng.Promote(w.ctx, w.tx, "fullfresh", true)
	require.NoError(t, err)
	assert.True(t, target.Leader)

	target, err = w.eng.Promote(w.ctx, w.tx, "fullfresh", false)
	require.NoError(t, err)
	assert.False(t, target.Leader)
}

func TestPromoteUnknownPlayer(t *testing.T) {
	w := newWorld(t, defaultConfig())

	_, err := w.eng.Promote(w.ctx, w.tx, "nobody", true)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
