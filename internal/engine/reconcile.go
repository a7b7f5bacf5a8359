package engine

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// ErrUnmatched means reply-thread reconciliation could not recover a
// tracked skirmish from the parent message. It is a soft failure: the
// caller re-prompts the player.
var ErrUnmatched = errors.New("engine: no skirmish matched")

// Message is the fragment of a platform message reconciliation needs.
type Message struct {
	ID     string
	Author string
	Body   string
}

// MessageLookup fetches a single platform message by id. Implementations
// may block on the network; a nil message with no error means the
// message is gone (deleted author or body).
type MessageLookup interface {
	Info(id string) (*Message, error)
}

// subskirmishRe matches the "(subskirmish N)" marker the reply renderer
// appends to non-root confirmations; skirmishRe matches the bolded
// "Skirmish #N" of root confirmations. Reconciliation tries them in that
// order.
var (
	subskirmishRe = regexp.MustCompile(`\(subskirmish (\d+)\)`)
	skirmishRe    = regexp.MustCompile(`Skirmish #(\d+)\*`)
)

// Reconcile recovers the intended parent skirmish when a reacting
// comment's immediate parent is not itself a tracked node, by text-mining
// the bot's own historical reply. Foreign ancestors are memoized in the
// processed log so each one costs at most one remote fetch.
func (e *Engine) Reconcile(ctx context.Context, tx *store.Tx, battle *game.Battle, parentMessageID string, lookup MessageLookup) (*game.SkirmishAction, error) {
	seen, err := tx.IsProcessed(ctx, parentMessageID)
	if err != nil {
		return nil, err
	}
	if seen {
		// Already determined non-matchable on an earlier scan.
		return nil, ErrUnmatched
	}

	msg, err := lookup.Info(parentMessageID)
	if err != nil {
		// Remote failure proves nothing; leave the marker unwritten so a
		// later scan may retry.
		return nil, ErrUnmatched
	}
	if msg == nil || msg.Author == "" {
		// Parent was deleted.
		return nil, ErrUnmatched
	}

	if msg.Author != e.cfg.Username {
		// Not ours to interpret; remember that.
		if err := tx.MarkProcessed(ctx, parentMessageID, battle.ID); err != nil {
			return nil, err
		}
		return nil, ErrUnmatched
	}

	id, ok := extractSkirmishID(msg.Body)
	if !ok {
		return nil, ErrUnmatched
	}
	node, err := tx.SkirmishByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnmatched
	}
	return node, err
}

// extractSkirmishID pulls the referenced node id out of a rendered
// reply, preferring the subskirmish marker over the root marker.
func extractSkirmishID(body string) (int64, bool) {
	if m := subskirmishRe.FindStringSubmatch(body); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		return id, err == nil
	}
	if m := skirmishRe.FindStringSubmatch(body); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		return id, err == nil
	}
	return 0, false
}
