package command

import (
	"errors"
	"fmt"
	"log"

	"github.com/Spamman4587/chromabot/internal/game"
)

// executeMove schedules a troop relocation. The confirmation reply is
// informational: its failure is logged, the order still commits.
func executeMove(c *Ctx, intent *Intent) error {
	dest := getRegion(c, intent.Where)
	if dest == nil {
		return nil
	}

	amount := intent.Amount
	if intent.All {
		amount = c.Player.Loyalists
	}

	order, err := c.d.engine.Move(c.Context, c.Tx, c.Player, amount, dest)
	if err != nil {
		var insErr *game.InsufficientError
		var adjErr *game.NonAdjacentError
		var busyErr *game.InProgressError
		var teamErr *game.TeamError
		switch {
		case errors.As(err, &insErr):
			c.reply(fmt.Sprintf("You cannot move %d of your people - you only have %d",
				insErr.Requested, insErr.Available))
		case errors.As(err, &adjErr):
			c.reply(fmt.Sprintf("Your current region, %s, is not adjacent to %s",
				markdown(adjErr.From), markdown(dest)))
		case errors.As(err, &busyErr):
			replyInProgress(c, busyErr)
		case errors.As(err, &teamErr):
			c.reply(fmt.Sprintf("%s is not friendly territory - invade first if you want to go there",
				intent.Where))
		default:
			return err
		}
		return nil
	}

	if order != nil {
		c.reply(fmt.Sprintf(
			"**Confirmed**: You are leading %d of your people to %s. You will arrive at %s.",
			amount, markdown(dest), timeStr(order.Arrives)))
	} else {
		c.reply(fmt.Sprintf("**Confirmed**: You have lead %d of your people to %s.",
			amount, markdown(dest)))
	}
	return nil
}

// replyInProgress distinguishes the two exclusivity blockers: a march
// already underway versus a standing battle commitment.
func replyInProgress(c *Ctx, e *game.InProgressError) {
	if e.Order != nil {
		dest, err := c.Tx.RegionByID(c.Context, e.Order.DestID)
		if err != nil {
			log.Printf("Region lookup failed: %v", err)
			return
		}
		c.reply(fmt.Sprintf(
			"You are already leading your armies to %s - you can give further orders upon your arrival at %s",
			markdown(dest), timeStr(e.Order.Arrives)))
		return
	}
	region, err := c.Tx.RegionByID(c.Context, e.Battle.RegionID)
	if err != nil {
		log.Printf("Region lookup failed: %v", err)
		return
	}
	c.reply(fmt.Sprintf(
		"You have committed your armies to the battle at %s - you must see this through to the bitter end.",
		markdown(region)))
}
