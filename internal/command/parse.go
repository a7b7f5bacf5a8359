package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Spamman4587/chromabot/internal/game"
)

// IntentKind identifies a supported command.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentInvade
	IntentMove
	IntentDefect
	IntentPromote
	IntentStatus
	IntentSkirmish
)

// Intent is a resolved player command ready for dispatch. Amount uses an
// explicit All flag instead of a sentinel value, decoded here before
// anything downstream sees it.
type Intent struct {
	Kind      IntentKind
	Where     string
	Amount    int
	All       bool
	Team      string
	Who       string
	Direction string // "promote" or "demote"
	Action    string // "attack" or "support"
	TroopType game.TroopType
}

// aliases maps common misspellings and synonyms onto canonical words.
var aliases = map[string]string{
	"calvalry": "cavalry",
	"calvary":  "cavalry",
	"range":    "ranged",
	"oppose":   "attack",
	"move":     "lead",
}

func canon(word string) string {
	w := strings.ToLower(word)
	if a, ok := aliases[w]; ok {
		return a
	}
	return w
}

// ParseIntent tokenizes a raw message body into an Intent. The error, if
// any, is a usage string fit to send back to the player.
func ParseIntent(text string) (*Intent, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return nil, fmt.Errorf("I don't understand that order.")
	}

	switch canon(fields[0]) {
	case "invade":
		if len(fields) < 2 {
			return nil, fmt.Errorf("Usage: invade <region>")
		}
		return &Intent{Kind: IntentInvade, Where: fields[len(fields)-1]}, nil

	case "lead":
		return parseMove(fields[1:])

	case "defect":
		intent := &Intent{Kind: IntentDefect}
		// "defect to <team>" names the destination; bare "defect" flips.
		if len(fields) >= 3 && fields[1] == "to" {
			intent.Team = fields[2]
		} else if len(fields) == 2 {
			intent.Team = fields[1]
		}
		return intent, nil

	case "promote", "demote":
		if len(fields) < 2 {
			return nil, fmt.Errorf("Usage: %s <player>", fields[0])
		}
		return &Intent{Kind: IntentPromote, Who: fields[1], Direction: canon(fields[0])}, nil

	case "status", "lands":
		return &Intent{Kind: IntentStatus}, nil

	case "attack", "support":
		return parseSkirmish(canon(fields[0]), fields[1:])
	}

	return nil, fmt.Errorf("I don't understand that order.")
}

// parseMove handles "lead [<amount>|all] (to) <region>".
func parseMove(rest []string) (*Intent, error) {
	usage := fmt.Errorf("Usage: lead <amount|all> to <region>")
	if len(rest) == 0 {
		return nil, usage
	}

	intent := &Intent{Kind: IntentMove, All: true}
	if rest[0] == "all" {
		rest = rest[1:]
	} else if n, err := strconv.Atoi(rest[0]); err == nil {
		intent.Amount = n
		intent.All = false
		rest = rest[1:]
	}

	if len(rest) > 0 && rest[0] == "to" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, usage
	}
	intent.Where = rest[len(rest)-1]
	return intent, nil
}

// parseSkirmish handles "attack|support with <amount> [troop type]".
func parseSkirmish(action string, rest []string) (*Intent, error) {
	usage := fmt.Errorf("Usage: %s with <amount> [infantry|cavalry|ranged]", action)
	if len(rest) > 0 && rest[0] == "with" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return nil, usage
	}

	amount, err := strconv.Atoi(rest[0])
	if err != nil {
		return nil, usage
	}

	troopType := game.TroopInfantry
	if len(rest) > 1 {
		troopType = game.TroopType(canon(rest[1]))
		if !troopType.Valid() {
			return nil, usage
		}
	}
	return &Intent{Kind: IntentSkirmish, Action: action, Amount: amount, TroopType: troopType}, nil
}
