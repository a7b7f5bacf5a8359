package command

import (
	"errors"
	"fmt"
	"log"

	"github.com/Spamman4587/chromabot/internal/game"
)

var errAnnouncementFailed = errors.New("invasion announcement could not be posted")

const invasionText = `Negotiations have broken down, and the trumpets of war have sounded.  Even now, civilians are being evacuated and the able-bodied drafted.  The conflict will soon be upon you.

Gather your forces while you can, for your enemy shall arrive at %s`

// executeInvade opens a battle and posts its announcement thread. The
// battle only commits if the announcement was confirmed; a failed or
// timed-out submit rolls the whole transaction back so no battle ever
// exists without its thread linkage.
func executeInvade(c *Ctx, intent *Intent) error {
	dest := getRegion(c, intent.Where)
	if dest == nil {
		return nil
	}

	begins := c.d.engine.Now().Add(c.d.engine.Config().BattleDelay)
	battle, err := c.d.engine.Invade(c.Context, c.Tx, c.Player, dest, begins)
	if err != nil {
		var rankErr *game.RankError
		var teamErr *game.TeamError
		var adjErr *game.NonAdjacentError
		var busyErr *game.InProgressError
		switch {
		case errors.As(err, &rankErr):
			c.reply("You don't have the authority to invade a region!")
		case errors.As(err, &teamErr):
			c.reply(fmt.Sprintf("You can't invade %s, you already own it!", markdown(dest)))
		case errors.As(err, &adjErr):
			c.reply(fmt.Sprintf("%s is not next to any territory you control", markdown(dest)))
		case errors.As(err, &busyErr):
			c.reply(fmt.Sprintf("%s is already being invaded!", markdown(dest)))
		default:
			return err
		}
		return nil
	}

	c.reply(fmt.Sprintf("**Confirmed**  Battle will begin at %s", timeStr(battle.Begins)))

	title := fmt.Sprintf("[Invasion] The %s armies march!", c.Player.Team)
	submissionID, err := c.d.courier.Submit(dest.Channel, title, fmt.Sprintf(invasionText, timeStr(battle.Begins)))
	if err != nil {
		log.Printf("Couldn't submit invasion thread: %v", err)
		return errAnnouncementFailed
	}
	return c.d.engine.ConfirmSubmission(c.Context, c.Tx, battle, submissionID)
}
