package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spamman4587/chromabot/internal/game"
)

// fakeLookup serves canned messages and counts remote fetches.
type fakeLookup struct {
	msgs  map[string]*Message
	err   error
	calls int
}

func (f *fakeLookup) Info(id string) (*Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.msgs[id], nil
}

func TestReconcileFromSubskirmishMarker(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)
	node, err := w.eng.CreateRoot(w.ctx, w.tx, battle, w.recPW, 30, game.TroopInfantry)
	require.NoError(t, err)

	lookup := &fakeLookup{msgs: map[string]*Message{
		"t1_conf": {ID: "t1_conf", Author: "chromabot",
			Body: fmt.Sprintf("**Confirmed**: committed to **Skirmish #%d** (subskirmish %d).", node.ID, node.ID)},
	}}
	found, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_conf", lookup)
	require.NoError(t, err)
	assert.Equal(t, node.ID, found.ID)
}

func TestReconcileFromRootMarker(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)
	node, err := w.eng.CreateRoot(w.ctx, w.tx, battle, w.recPW, 30, game.TroopInfantry)
	require.NoError(t, err)

	lookup := &fakeLookup{msgs: map[string]*Message{
		"t1_conf": {ID: "t1_conf", Author: "chromabot",
			Body: fmt.Sprintf("**Confirmed**: committed to **Skirmish #%d**.", node.ID)},
	}}
	found, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_conf", lookup)
	require.NoError(t, err)
	assert.Equal(t, node.ID, found.ID)
}

func TestReconcileForeignAuthorMemoized(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)

	lookup := &fakeLookup{msgs: map[string]*Message{
		"t1_chat": {ID: "t1_chat", Author: "bystander", Body: "good luck out there"},
	}}
	_, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_chat", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))
	assert.Equal(t, 1, lookup.calls)

	// The processed marker spares the second scan a remote fetch.
	_, err = w.eng.Reconcile(w.ctx, w.tx, battle, "t1_chat", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))
	assert.Equal(t, 1, lookup.calls)
}

func TestReconcileLookupFailureRetries(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)

	lookup := &fakeLookup{err: errors.New("api timeout")}
	_, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_gone", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))

	// No marker was written, so a later scan fetches again.
	lookup.err = nil
	lookup.msgs = map[string]*Message{
		"t1_gone": {ID: "t1_gone", Author: "bystander", Body: "hello"},
	}
	_, err = w.eng.Reconcile(w.ctx, w.tx, battle, "t1_gone", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))
	assert.Equal(t, 2, lookup.calls)
}

func TestReconcileDeletedParent(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)

	lookup := &fakeLookup{msgs: map[string]*Message{}}
	_, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_deleted", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))
}

func TestReconcileOwnReplyWithoutMarker(t *testing.T) {
	w := newWorld(t, defaultConfig())
	battle := activeBattle(t, w)

	lookup := &fakeLookup{msgs: map[string]*Message{
		"t1_info": {ID: "t1_info", Author: "chromabot", Body: "The battle has not yet begun!"},
	}}
	_, err := w.eng.Reconcile(w.ctx, w.tx, battle, "t1_info", lookup)
	assert.True(t, errors.Is(err, ErrUnmatched))
}

func TestExtractSkirmishIDPrefersSubskirmish(t *testing.T) {
	body := "committed to **Skirmish #4** (subskirmish 9)."
	id, ok := extractSkirmishID(body)
	require.True(t, ok)
	assert.Equal(t, int64(9), id)
}
