package command

import (
	"errors"
	"fmt"

	"github.com/Spamman4587/chromabot/internal/game"
)

// executeDefect switches the player's allegiance. Without an explicit
// team the order flips to the opposing side.
func executeDefect(c *Ctx, intent *Intent) error {
	team := c.Player.Team.Enemy()
	if intent.Team != "" {
		parsed, ok := game.ParseTeam(intent.Team)
		if !ok {
			c.reply(fmt.Sprintf("I don't know any army called '%s'", intent.Team))
			return nil
		}
		team = parsed
	}

	if err := c.d.engine.Defect(c.Context, c.Tx, c.Player, team); err != nil {
		var teamErr *game.TeamError
		var timeErr *game.TimingError
		switch {
		case errors.As(err, &teamErr):
			c.reply("You're trying to defect to the team you're already on!")
		case errors.As(err, &timeErr):
			c.reply("You can only defect if you haven't taken any actions.")
		default:
			return err
		}
		return nil
	}

	capital, err := c.Tx.RegionByID(c.Context, c.Player.RegionID)
	if err != nil {
		return err
	}
	c.reply(fmt.Sprintf("Done - you are now on team %s and encamped in their capital of %s",
		c.Player.Team, markdown(capital)))
	return nil
}
