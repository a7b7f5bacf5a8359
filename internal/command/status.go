package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spamman4587/chromabot/internal/store"
)

// executeStatus reports personal standing plus the state of every
// region. Purely informational; nothing here mutates state.
func executeStatus(c *Ctx) error {
	var forces string
	if order, err := c.Tx.MovementByPlayer(c.Context, c.Player.ID); err == nil {
		dest, derr := c.Tx.RegionByID(c.Context, order.DestID)
		if derr != nil {
			return derr
		}
		forces = fmt.Sprintf("Your forces are currently on the march to %s and will arrive at %s",
			markdown(dest), timeStr(order.Arrives))
	} else if errors.Is(err, store.ErrNotFound) {
		region, rerr := c.Tx.RegionByID(c.Context, c.Player.RegionID)
		if rerr != nil {
			return rerr
		}
		forces = fmt.Sprintf("You are currently encamped at %s", markdown(region))
	} else {
		return err
	}

	commitStr := ""
	if c.Player.Committed > 0 {
		commitStr = fmt.Sprintf(", %d of which are committed to battle", c.Player.Committed)
	}
	personal := fmt.Sprintf("You are a %s in the %s army.\n\nYour forces number %d loyalists%s.\n\n%s",
		c.Player.Rank, c.Player.Team, c.Player.Loyalists, commitStr, forces)

	lands, err := landsStatus(c)
	if err != nil {
		return err
	}
	c.reply(personal + "\n\n" + lands)
	return nil
}

func landsStatus(c *Ctx) (string, error) {
	regions, err := c.Tx.Regions(c.Context)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, region := range regions {
		dispute := ""
		if battle, err := c.Tx.ActiveBattleByRegion(c.Context, region.ID); err == nil {
			dispute = fmt.Sprintf(" ( Battle #%d )", battle.ID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("* **%s**:  %s%s", markdown(region), region.Owner, dispute))
	}
	return "State of Chroma:\n\n" + strings.Join(lines, "\n"), nil
}
