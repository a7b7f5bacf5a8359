package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/Spamman4587/chromabot/internal/engine"
	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// executeSkirmish commits troops to a battle. A direct reply to the
// announcement thread opens a top-level offensive; a reply to another
// confirmed command reacts to it. When the parent comment is not itself
// a tracked node, reply-thread reconciliation text-mines the bot's own
// historical reply for the intended target.
func executeSkirmish(c *Ctx, intent *Intent) error {
	if !c.Msg.WasComment {
		// PMing skirmish commands makes no sense.
		c.reply("You must enter your skirmish commands in the appropriate battle post")
		return nil
	}

	battle, err := c.Tx.BattleBySubmission(c.Context, c.Msg.ThreadID)
	if errors.Is(err, store.ErrNotFound) {
		c.reply("There's no battle happening here!")
		return nil
	}
	if err != nil {
		return err
	}

	var node *game.SkirmishAction
	if c.Msg.ParentID == c.Msg.ThreadID {
		node, err = c.d.engine.CreateRoot(c.Context, c.Tx, battle, c.Player, intent.Amount, intent.TroopType)
	} else {
		parent, ferr := c.d.engine.FindByMessageID(c.Context, c.Tx, c.Msg.ParentID)
		if errors.Is(ferr, store.ErrNotFound) {
			parent, ferr = c.d.engine.Reconcile(c.Context, c.Tx, battle, c.Msg.ParentID, c.d.lookup())
			if errors.Is(ferr, engine.ErrUnmatched) {
				c.reply("You can only use skirmish commands in reply to other confirmed skirmish commands")
				return nil
			}
		}
		if ferr != nil {
			return ferr
		}
		hinder := intent.Action == "attack"
		node, err = c.d.engine.React(c.Context, c.Tx, parent, c.Player, intent.Amount, hinder, intent.TroopType)
	}
	if err != nil {
		return replySkirmishFailure(c, battle, err)
	}

	root, err := c.d.engine.Root(c.Context, c.Tx, node)
	if err != nil {
		return err
	}
	subskirmish := ""
	if root.ID != node.ID {
		subskirmish = fmt.Sprintf(" (subskirmish %d)", node.ID)
	}
	c.reply(fmt.Sprintf(
		"**Confirmed**: You have committed %d of your forces as **%s** to **Skirmish #%d**%s.\n\n"+
			"As of now, you have committed %d total.  **For %s!**",
		node.Amount, node.TroopType, root.ID, subskirmish, c.Player.Committed, c.Player.Team))

	return c.d.engine.ConfirmComment(c.Context, c.Tx, node, c.Msg.ID)
}

// replySkirmishFailure renders the typed failures a skirmish commitment
// can hit. Unexpected errors propagate for rollback.
func replySkirmishFailure(c *Ctx, battle *game.Battle, err error) error {
	var npErr *game.NotPresentError
	var teamErr *game.TeamError
	var busyErr *game.InProgressError
	var insErr *game.InsufficientError
	var timeErr *game.TimingError
	switch {
	case errors.As(err, &npErr):
		standard := fmt.Sprintf("Your armies are currently in %s and thus cannot participate in this battle.",
			markdown(npErr.Region))
		marching := ""
		if npErr.Moving != nil {
			dest, derr := c.Tx.RegionByID(c.Context, npErr.Moving.DestID)
			if derr != nil {
				return derr
			}
			marching = fmt.Sprintf("\n\n(Your forces will arrive in %s at %s )",
				markdown(dest), timeStr(npErr.Moving.Arrives))
		}
		c.reply(standard + marching)
	case errors.As(err, &teamErr):
		if teamErr.Friendly {
			c.reply("You cannot attack someone on your team")
		} else {
			c.reply("You cannot aid the enemy!")
		}
	case errors.As(err, &busyErr):
		c.reply("You can only spearhead one offensive per battle (though you may still assist others)")
	case errors.As(err, &insErr):
		if insErr.Requested <= 0 {
			c.reply("You must use at least 1 troop!")
		} else {
			c.reply(fmt.Sprintf("You don't have %d troops to spare! (you have committed %d total)",
				insErr.Requested, c.Player.Committed))
		}
	case errors.As(err, &timeErr):
		if timeErr.Side == game.TimingLate {
			c.reply(fmt.Sprintf("Top-level attacks are disallowed in the last %d seconds of a battle",
				int(battle.Lockout/time.Second)))
		} else {
			c.reply("The battle has not yet begun!")
		}
	default:
		return err
	}
	return nil
}
