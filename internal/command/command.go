// Package command is the dispatch layer between the messaging platform
// and the engine. It resolves each inbound message into one engine
// operation, renders the reply text from the operation's success value
// or typed failure, and owns the commit/rollback decision for the
// transaction the operation ran in.
package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Spamman4587/chromabot/internal/courier"
	"github.com/Spamman4587/chromabot/internal/engine"
	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// Courier is the outward messaging surface the dispatcher consumes.
type Courier interface {
	Reply(parentID, text string) (string, error)
	Submit(channel, title, text string) (string, error)
	Info(id string) (*courier.Message, error)
}

// Config carries the settings that shape replies.
type Config struct {
	Recruitment string // channel new players sign up in
}

const failNotPlayer = `Sorry, I can't help you - first of all, you messaged a bot.  Secondly, you
don't seem to actually be playing the game I run!  If you'd like to change
that, comment in the latest recruitment thread in /r/%s`

// Dispatcher implements courier.Handler: one inbound message becomes one
// transactional engine operation plus rendered replies.
type Dispatcher struct {
	store   *store.Store
	engine  *engine.Engine
	courier Courier
	cfg     Config
}

// NewDispatcher wires the dispatch layer.
func NewDispatcher(st *store.Store, eng *engine.Engine, c Courier, cfg Config) *Dispatcher {
	return &Dispatcher{store: st, engine: eng, courier: c, cfg: cfg}
}

// Ctx bundles everything a single command execution touches.
type Ctx struct {
	Context context.Context
	Tx      *store.Tx
	Player  *game.Player
	Msg     *courier.Message
	d       *Dispatcher
}

// reply posts an informational reply. Failures are logged and swallowed:
// a lost confirmation never rolls back domain state.
func (c *Ctx) reply(text string) string {
	id, err := c.d.courier.Reply(c.Msg.ID, text)
	if err != nil {
		log.Printf("Reply failed: %v", err)
		return ""
	}
	return id
}

// Handle processes one inbound message end to end. Domain rule
// violations are rendered to the player and the transaction still
// commits (they leave no writes behind); infrastructure or unexpected
// failures roll back and are reported to the worker.
func (d *Dispatcher) Handle(msg *courier.Message) error {
	intent, perr := ParseIntent(msg.Body)

	ctx := context.Background()
	tx, err := d.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	player, err := tx.PlayerByName(ctx, msg.Author)
	if errors.Is(err, store.ErrNotFound) {
		if _, rerr := d.courier.Reply(msg.ID, fmt.Sprintf(failNotPlayer, d.cfg.Recruitment)); rerr != nil {
			log.Printf("Reply failed: %v", rerr)
		}
		return nil
	}
	if err != nil {
		return err
	}

	c := &Ctx{Context: ctx, Tx: tx, Player: player, Msg: msg, d: d}
	if perr != nil {
		c.reply(perr.Error())
		return nil
	}

	var cmdErr error
	switch intent.Kind {
	case IntentInvade:
		cmdErr = executeInvade(c, intent)
	case IntentMove:
		cmdErr = executeMove(c, intent)
	case IntentDefect:
		cmdErr = executeDefect(c, intent)
	case IntentPromote:
		cmdErr = executePromote(c, intent)
	case IntentStatus:
		cmdErr = executeStatus(c)
	case IntentSkirmish:
		cmdErr = executeSkirmish(c, intent)
	default:
		c.reply("I don't understand that order.")
	}
	if cmdErr != nil {
		return cmdErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit command: %w", err)
	}
	committed = true
	return nil
}

// lookup adapts the courier to the engine's reconciliation interface.
func (d *Dispatcher) lookup() engine.MessageLookup {
	return courierLookup{c: d.courier}
}

type courierLookup struct {
	c Courier
}

func (l courierLookup) Info(id string) (*engine.Message, error) {
	m, err := l.c.Info(id)
	if err != nil || m == nil {
		return nil, err
	}
	return &engine.Message{ID: m.ID, Author: m.Author, Body: m.Body}, nil
}

// getRegion resolves a region by name or channel, replying directly when
// nothing matches.
func getRegion(c *Ctx, where string) *game.Region {
	region, err := c.d.engine.Lookup(c.Context, c.Tx, where)
	if errors.Is(err, store.ErrNotFound) {
		c.reply(fmt.Sprintf("I don't know any region or subreddit named '%s'", where))
		return nil
	}
	if err != nil {
		log.Printf("Region lookup failed: %v", err)
		return nil
	}
	return region
}

// markdown renders a region as a channel link.
func markdown(r *game.Region) string {
	return fmt.Sprintf("[%s](/r/%s)", r.Name, r.Channel)
}

func timeStr(t time.Time) string {
	return t.UTC().Format("Mon Jan 2 15:04:05 2006 UTC")
}
