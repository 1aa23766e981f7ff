package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ActionState tags the last thing a player did in the current betting round.
type ActionState int

const (
	NoAction ActionState = iota
	Raised
	Folded
	Called
	Won
)

func (s ActionState) String() string {
	switch s {
	case NoAction:
		return "none"
	case Raised:
		return "raised"
	case Folded:
		return "folded"
	case Called:
		return "called"
	case Won:
		return "won"
	}
	return fmt.Sprintf("ActionState(%d)", int(s))
}

// ParseActionState is the inverse of String. The store persists the tag as
// text, so unknown values coming back from it are an error, not a zero value.
func ParseActionState(s string) (ActionState, error) {
	switch s {
	case "none":
		return NoAction, nil
	case "raised":
		return Raised, nil
	case "folded":
		return Folded, nil
	case "called":
		return Called, nil
	case "won":
		return Won, nil
	}
	return NoAction, fmt.Errorf("unknown action state %q", s)
}

// Event is what the notifier fans out to every player in a game after an
// action commits. Player carries a sha256 of the acting player's token so
// other clients can attribute the event without learning the token itself.
type Event struct {
	Player  string `json:"player"`
	Type    string `json:"type"`
	Payload string `json:"actionPayload"`
}

func foldEvent(p *Player) Event {
	return Event{Player: hashToken(p.Token), Type: "fold"}
}

func raiseEvent(p *Player, amount int, raising bool) Event {
	t := "call"
	if raising {
		t = "raise"
	}
	return Event{Player: hashToken(p.Token), Type: t, Payload: strconv.Itoa(amount)}
}

func wonEvent(p *Player) Event {
	return Event{Player: hashToken(p.Token), Type: "won"}
}

func roundEvent(round int) Event {
	return Event{Type: "round", Payload: strconv.Itoa(round)}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
