package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seat(token string, turn int, act ActionState) *Player {
	return &Player{Token: token, Turn: turn, Funds: 1000, LastAct: act}
}

func TestNextActivePlayerRotates(t *testing.T) {
	players := []*Player{
		seat("a", 0, NoAction),
		seat("b", 1, NoAction),
		seat("c", 2, NoAction),
	}

	next, ok := nextActivePlayer(players, "a")
	assert.True(t, ok)
	assert.Equal(t, "b", next)

	next, ok = nextActivePlayer(players, "b")
	assert.True(t, ok)
	assert.Equal(t, "c", next)
}

func TestNextActivePlayerWrapsAround(t *testing.T) {
	players := []*Player{
		seat("a", 0, NoAction),
		seat("b", 1, NoAction),
		seat("c", 2, NoAction),
	}

	next, ok := nextActivePlayer(players, "c")
	assert.True(t, ok)
	assert.Equal(t, "a", next)
}

func TestNextActivePlayerSkipsFolded(t *testing.T) {
	players := []*Player{
		seat("a", 0, NoAction),
		seat("b", 1, Folded),
		seat("c", 2, NoAction),
	}

	next, ok := nextActivePlayer(players, "a")
	assert.True(t, ok)
	assert.Equal(t, "c", next)

	// Wrap also skips the folded seat.
	next, ok = nextActivePlayer(players, "c")
	assert.True(t, ok)
	assert.Equal(t, "a", next)
}

func TestNextActivePlayerOnePlayerEndgame(t *testing.T) {
	players := []*Player{
		seat("a", 0, NoAction),
		seat("b", 1, Folded),
		seat("c", 2, Folded),
	}

	// Only one eligible player left: no hand-off, regardless of who acted.
	_, ok := nextActivePlayer(players, "a")
	assert.False(t, ok)

	_, ok = nextActivePlayer(players, "b")
	assert.False(t, ok)
}

func TestNextActivePlayerActorFoldedCountsOthers(t *testing.T) {
	players := []*Player{
		seat("a", 0, Folded),
		seat("b", 1, NoAction),
		seat("c", 2, NoAction),
	}

	next, ok := nextActivePlayer(players, "a")
	assert.True(t, ok)
	assert.Equal(t, "b", next)
}

func TestNextActivePlayerUnknownToken(t *testing.T) {
	players := []*Player{seat("a", 0, NoAction), seat("b", 1, NoAction)}
	_, ok := nextActivePlayer(players, "zz")
	assert.False(t, ok)
}
