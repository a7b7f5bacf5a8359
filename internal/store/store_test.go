package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spamman4587/chromabot/internal/game"
)

func openTest(t *testing.T) (*Store, *Tx, context.Context) {
	t.Helper()
	st, err := Open(DialectSQLite, filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return st, tx, ctx
}

func TestOpenRejectsBadInput(t *testing.T) {
	_, err := Open(DialectSQLite, "")
	assert.Error(t, err)

	_, err = Open(Dialect("oracle"), "whatever")
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "game.db")
	st, err := Open(DialectSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening must not reapply the schema.
	st, err = Open(DialectSQLite, dsn)
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}

func TestPlayerRoundTrip(t *testing.T) {
	_, tx, ctx := openTest(t)

	region := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, region))

	p := &game.Player{Name: "mehungry", Team: game.TeamOrangered, Rank: game.RankGeneral,
		Leader: true, RegionID: region.ID, Loyalists: 100, Defectable: true}
	require.NoError(t, tx.CreatePlayer(ctx, p))
	require.NotZero(t, p.ID)

	found, err := tx.PlayerByName(ctx, "mehungry")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, game.RankGeneral, found.Rank)
	assert.True(t, found.Leader)
	assert.True(t, found.Defectable)

	found.Committed = 30
	found.Defectable = false
	require.NoError(t, tx.SavePlayer(ctx, found))
	again, err := tx.PlayerByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, again.Committed)
	assert.False(t, again.Defectable)

	_, err = tx.PlayerByName(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegionAdjacencyAndLookup(t *testing.T) {
	_, tx, ctx := openTest(t)

	orangered := game.TeamOrangered
	a := &game.Region{Name: "oraistedarg", Channel: "ora_chan", Owner: orangered, Capital: &orangered}
	b := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, a))
	require.NoError(t, tx.CreateRegion(ctx, b))
	require.NoError(t, tx.AddAdjacency(ctx, a.ID, b.ID))

	// Adjacency is symmetric.
	fa, err := tx.RegionByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, fa.IsAdjacent(b.ID))
	fb, err := tx.RegionByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, fb.IsAdjacent(a.ID))

	// Lookup works by name or by channel.
	byName, err := tx.RegionByKey(ctx, "oraistedarg")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)
	byChannel, err := tx.RegionByKey(ctx, "ora_chan")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byChannel.ID)

	capital, err := tx.CapitalOf(ctx, game.TeamOrangered)
	require.NoError(t, err)
	assert.Equal(t, a.ID, capital.ID)
	_, err = tx.CapitalOf(ctx, game.TeamPeriwinkle)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, tx.SetOwner(ctx, b.ID, game.TeamOrangered))
	fb, err = tx.RegionByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, game.TeamOrangered, fb.Owner)
}

func TestBattleQueries(t *testing.T) {
	_, tx, ctx := openTest(t)

	region := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, region))

	begins := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	b := &game.Battle{RegionID: region.ID, Begins: begins,
		Ends: begins.Add(48 * time.Hour), Lockout: time.Hour}
	require.NoError(t, tx.CreateBattle(ctx, b))

	active, err := tx.ActiveBattleByRegion(ctx, region.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)
	assert.Equal(t, begins, active.Begins)
	assert.Equal(t, time.Hour, active.Lockout)

	b.SubmissionID = "t3_xyz"
	require.NoError(t, tx.SaveBattle(ctx, b))
	bySub, err := tx.BattleBySubmission(ctx, "t3_xyz")
	require.NoError(t, err)
	assert.Equal(t, b.ID, bySub.ID)

	open, err := tx.UnresolvedBattles(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	b.Resolved = true
	require.NoError(t, tx.SaveBattle(ctx, b))
	_, err = tx.ActiveBattleByRegion(ctx, region.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	open, err = tx.UnresolvedBattles(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSkirmishQueries(t *testing.T) {
	_, tx, ctx := openTest(t)

	region := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, region))
	player := &game.Player{Name: "mehungry", Team: game.TeamOrangered,
		RegionID: region.ID, Loyalists: 100}
	require.NoError(t, tx.CreatePlayer(ctx, player))
	begins := time.Now().UTC().Truncate(time.Millisecond)
	battle := &game.Battle{RegionID: region.ID, Begins: begins, Ends: begins.Add(time.Hour)}
	require.NoError(t, tx.CreateBattle(ctx, battle))

	root := &game.SkirmishAction{BattleID: battle.ID, PlayerID: player.ID,
		Amount: 30, TroopType: game.TroopCavalry, Side: game.SideOffense}
	require.NoError(t, tx.CreateSkirmish(ctx, root))
	child := &game.SkirmishAction{BattleID: battle.ID, ParentID: root.ID, PlayerID: player.ID,
		Amount: 10, TroopType: game.TroopInfantry, Side: game.SideDefense}
	require.NoError(t, tx.CreateSkirmish(ctx, child))

	byPlayer, err := tx.RootSkirmishByPlayer(ctx, battle.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, byPlayer.ID)

	all, err := tx.SkirmishesByBattle(ctx, battle.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, tx.SetSkirmishComment(ctx, child.ID, "t1_child"))
	byComment, err := tx.SkirmishByComment(ctx, "t1_child")
	require.NoError(t, err)
	assert.Equal(t, child.ID, byComment.ID)
	assert.False(t, byComment.IsRoot())

	// A player with a root in an unresolved battle is battle-bound.
	bound, err := tx.UnresolvedRootByPlayer(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, bound.ID)

	battle.Resolved = true
	require.NoError(t, tx.SaveBattle(ctx, battle))
	_, err = tx.UnresolvedRootByPlayer(ctx, player.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMovementQueries(t *testing.T) {
	_, tx, ctx := openTest(t)

	region := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, region))
	player := &game.Player{Name: "mehungry", Team: game.TeamOrangered,
		RegionID: region.ID, Loyalists: 100}
	require.NoError(t, tx.CreatePlayer(ctx, player))

	departs := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	order := &game.MovementOrder{PlayerID: player.ID, DestID: region.ID,
		Amount: 100, Departs: departs, Arrives: departs.Add(8 * time.Hour)}
	require.NoError(t, tx.CreateMovement(ctx, order))

	byPlayer, err := tx.MovementByPlayer(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Arrives, byPlayer.Arrives)

	due, err := tx.DueMovements(ctx, departs.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
	due, err = tx.DueMovements(ctx, order.Arrives)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, tx.DeleteMovement(ctx, order.ID))
	_, err = tx.MovementByPlayer(ctx, player.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProcessedMarkersWriteOnce(t *testing.T) {
	_, tx, ctx := openTest(t)

	region := &game.Region{Name: "sapphire", Channel: "sapphire", Owner: game.TeamPeriwinkle}
	require.NoError(t, tx.CreateRegion(ctx, region))
	battle := &game.Battle{RegionID: region.ID, Begins: time.Now(), Ends: time.Now().Add(time.Hour)}
	require.NoError(t, tx.CreateBattle(ctx, battle))

	seen, err := tx.IsProcessed(ctx, "t1_abc")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, tx.MarkProcessed(ctx, "t1_abc", battle.ID))
	// Remarking the same id is a no-op, not an error.
	require.NoError(t, tx.MarkProcessed(ctx, "t1_abc", battle.ID))

	seen, err = tx.IsProcessed(ctx, "t1_abc")
	require.NoError(t, err)
	assert.True(t, seen)
}
