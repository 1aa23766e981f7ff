package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures broadcast events so resolver tests can assert
// on what the table was told.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Broadcast(gameID string, recipients []string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) byType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestSoleSurvivorWinsAndHandTerminates(t *testing.T) {
	st := NewMemStore()
	note := &recordingNotifier{}
	eng := NewEngine(st, note, log.New(io.Discard))
	ctx := context.Background()

	a := &Player{Token: "a", Turn: 0, Funds: 1000}
	b := &Player{Token: "b", Turn: 1, Funds: 1000}
	c := &Player{Token: "c", Turn: 2, Funds: 1000}
	g := &Game{ID: "000010", SmallBlind: 100, Started: true, CurrentPlayer: "a"}
	seedHand(t, st, g, a, b, c)

	out, err := eng.Fold(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.False(t, out.HandOver)

	out, err = eng.Fold(ctx, g.ID, "b")
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.Equal(t, "c", out.Winner)

	players, err := st.Players(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, Won, players[2].LastAct)

	// Terminal: no further currentPlayer updates, every action is rejected.
	got, err := st.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.CurrentPlayer)
	for _, token := range []string{"a", "b", "c"} {
		_, err := eng.Raise(ctx, g.ID, token, 100)
		assert.ErrorIs(t, err, ErrNotPlayersTurn)
	}
}

func TestHandEndsWithNoWinnerWhenEveryoneIsOut(t *testing.T) {
	st := NewMemStore()
	note := &recordingNotifier{}
	eng := NewEngine(st, note, log.New(io.Discard))
	ctx := context.Background()

	// b already folded, c is busted with nothing committed this round. Once
	// a folds nobody can contest the pot.
	a := &Player{Token: "a", Turn: 0, Funds: 500}
	b := &Player{Token: "b", Turn: 1, Funds: 500, LastAct: Folded}
	c := &Player{Token: "c", Turn: 2, Funds: 0, Bet: 0, LastAct: Called}
	g := &Game{ID: "000015", SmallBlind: 100, Pot: 1000, Round: 2, Started: true, CurrentPlayer: "a"}
	seedHand(t, st, g, a, b, c)

	out, err := eng.Fold(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.Empty(t, out.Winner)
	assert.Equal(t, 2, out.Round)

	got, err := st.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.CurrentPlayer)
	assert.Equal(t, 2, got.Round)

	// Terminal like any other hand end: every further action is rejected
	// and nobody was told they won.
	for _, token := range []string{"a", "b", "c"} {
		_, err := eng.Raise(ctx, g.ID, token, 100)
		assert.ErrorIs(t, err, ErrNotPlayersTurn)
	}
	assert.Empty(t, note.byType("won"))
}

func TestSoleSurvivorBroadcastsWonEvent(t *testing.T) {
	st := NewMemStore()
	note := &recordingNotifier{}
	eng := NewEngine(st, note, log.New(io.Discard))
	ctx := context.Background()

	a := &Player{Token: "a", Turn: 0, Funds: 1000}
	b := &Player{Token: "b", Turn: 1, Funds: 1000}
	g := &Game{ID: "000011", SmallBlind: 100, Started: true, CurrentPlayer: "a"}
	seedHand(t, st, g, a, b)

	out, err := eng.Fold(ctx, g.ID, "a")
	require.NoError(t, err)
	require.True(t, out.HandOver)
	assert.Equal(t, "b", out.Winner)

	// Broadcast is async; it must not be able to fail the action, only lag it.
	assert.Eventually(t, func() bool {
		won := note.byType("won")
		return len(won) == 1 && won[0].Player == hashToken("b")
	}, time.Second, 10*time.Millisecond)
}

func TestRoundSettlementAfterLoneRaiserIsCalled(t *testing.T) {
	st := NewMemStore()
	eng := NewEngine(st, NopNotifier{}, log.New(io.Discard))
	ctx := context.Background()

	players := []*Player{
		{Token: "p0", Turn: 0, Funds: 1000},
		{Token: "p1", Turn: 1, Funds: 1000},
		{Token: "p2", Turn: 2, Funds: 1000},
		{Token: "p3", Turn: 3, Funds: 1000},
	}
	g := &Game{ID: "000012", SmallBlind: 25, Started: true, CurrentPlayer: "p0"}
	seedHand(t, st, g, players...)

	_, err := eng.Raise(ctx, g.ID, "p0", 50)
	require.NoError(t, err)
	for _, token := range []string{"p1", "p2"} {
		out, err := eng.Raise(ctx, g.ID, token, 50)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Round)
	}

	out, err := eng.Raise(ctx, g.ID, "p3", 50)
	require.NoError(t, err)
	assert.False(t, out.HandOver)
	assert.Equal(t, 1, out.Round)

	got, err := st.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Round)
	assert.Equal(t, "p0", got.CurrentPlayer)
	assert.Equal(t, 200, got.Pot)

	// Fresh round: bets and action tags reset, pot carried forward.
	roster, err := st.Players(ctx, g.ID)
	require.NoError(t, err)
	for _, p := range roster {
		assert.Equal(t, 0, p.Bet)
		assert.Equal(t, NoAction, p.LastAct)
	}
}

func TestRoundWithNoRaisesSettlesOnceEveryoneChecks(t *testing.T) {
	st := NewMemStore()
	eng := NewEngine(st, NopNotifier{}, log.New(io.Discard))
	ctx := context.Background()

	a := &Player{Token: "a", Turn: 0, Funds: 1000}
	b := &Player{Token: "b", Turn: 1, Funds: 1000}
	c := &Player{Token: "c", Turn: 2, Funds: 1000}
	g := &Game{ID: "000013", SmallBlind: 100, Started: true, CurrentPlayer: "a"}
	seedHand(t, st, g, a, b, c)

	// Checks: raise to the current maximum, which is zero.
	for _, token := range []string{"a", "b"} {
		out, err := eng.Raise(ctx, g.ID, token, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Round)
	}
	out, err := eng.Raise(ctx, g.ID, "c", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Round)
}

func TestAllInPlayerExemptFromMatchingHighestBet(t *testing.T) {
	st := NewMemStore()
	eng := NewEngine(st, NopNotifier{}, log.New(io.Discard))
	ctx := context.Background()

	// b is all-in for less than the table bet; the round still settles once
	// the remaining contenders match.
	a := &Player{Token: "a", Turn: 0, Funds: 800, Bet: 200, LastAct: Raised}
	b := &Player{Token: "b", Turn: 1, Funds: 0, Bet: 120, LastAct: Called}
	c := &Player{Token: "c", Turn: 2, Funds: 1000}
	g := &Game{ID: "000014", SmallBlind: 100, Pot: 320, Started: true, CurrentPlayer: "c"}
	seedHand(t, st, g, a, b, c)

	out, err := eng.Raise(ctx, g.ID, "c", 200)
	require.NoError(t, err)
	assert.False(t, out.HandOver)
	assert.Equal(t, 1, out.Round)

	// After the reset b sits at zero funds and zero bet: out of contention
	// for the sole-survivor rule from here on.
	roster, err := st.Players(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, roster[1].Funds)
	assert.Equal(t, 0, roster[1].Bet)

	out, err = eng.Fold(ctx, g.ID, "a")
	require.NoError(t, err)
	assert.True(t, out.HandOver)
	assert.Equal(t, "c", out.Winner)
}

func TestNewRoundSkipsFoldedSeatZero(t *testing.T) {
	st := NewMemStore()
	eng := NewEngine(st, NopNotifier{}, log.New(io.Discard))
	ctx := context.Background()

	a := &Player{Token: "a", Turn: 0, Funds: 1000, LastAct: Folded}
	b := &Player{Token: "b", Turn: 1, Funds: 900, Bet: 100, LastAct: Raised}
	c := &Player{Token: "c", Turn: 2, Funds: 1000}
	g := &Game{ID: "000015", SmallBlind: 50, Pot: 100, Started: true, CurrentPlayer: "c"}
	seedHand(t, st, g, a, b, c)

	out, err := eng.Raise(ctx, g.ID, "c", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Round)

	got, err := st.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.CurrentPlayer)
}

func TestTurnUniquenessThroughoutHand(t *testing.T) {
	st := NewMemStore()
	eng := NewEngine(st, NopNotifier{}, log.New(io.Discard))
	ctx := context.Background()

	g, master, err := eng.CreateGame(ctx, "alice", 100)
	require.NoError(t, err)
	bob, err := eng.Join(ctx, g.ID, "bob")
	require.NoError(t, err)
	carol, err := eng.Join(ctx, g.ID, "carol")
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx, g.ID, master.Token))

	tokens := map[string]bool{master.Token: true, bob.Token: true, carol.Token: true}
	check := func() {
		got, err := st.Game(ctx, g.ID)
		require.NoError(t, err)
		if got.CurrentPlayer != "" {
			assert.True(t, tokens[got.CurrentPlayer])
		}
	}

	check()
	_, err = eng.Raise(ctx, g.ID, master.Token, 200)
	require.NoError(t, err)
	check()
	_, err = eng.Fold(ctx, g.ID, bob.Token)
	require.NoError(t, err)
	check()
	out, err := eng.Fold(ctx, g.ID, carol.Token)
	require.NoError(t, err)
	check()
	assert.True(t, out.HandOver)
	assert.Equal(t, master.Token, out.Winner)
}
