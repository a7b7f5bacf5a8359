package command

import (
	"errors"
	"fmt"

	"github.com/Spamman4587/chromabot/internal/store"
)

// executePromote grants or revokes leadership. Leadership of the acting
// player is a capability check at this edge, not a domain rule.
func executePromote(c *Ctx, intent *Intent) error {
	if !c.Player.Leader {
		c.reply("You can't promote if you aren't a leader yourself!")
		return nil
	}

	target, err := c.d.engine.Promote(c.Context, c.Tx, intent.Who, intent.Direction == "promote")
	if errors.Is(err, store.ErrNotFound) {
		c.reply(fmt.Sprintf("I don't know who %s is", intent.Who))
		return nil
	}
	if err != nil {
		return err
	}

	c.reply(fmt.Sprintf("%s has been %sd!", target.Name, intent.Direction))
	return nil
}
