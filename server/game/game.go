package game

import "sort"

// Defaults carried over from the original table rules.
const (
	StartingFundsDefault = 1000
	SmallBlindDefault    = 100
)

// Player is one seat in one game. Token and Turn never change after the
// player is seated.
type Player struct {
	Token    string
	Nickname string
	GameID   string
	Turn     int
	Funds    int
	Bet      int
	LastAct  ActionState
}

// Game is the shared per-table state. CurrentPlayer is empty until the game
// master starts the hand and again once a winner has been declared; only the
// engine ever assigns it.
type Game struct {
	ID            string
	GameMaster    string
	CurrentPlayer string
	Pot           int
	SmallBlind    int
	Round         int
	Started       bool
}

// BigBlind is fixed at twice the small blind.
func (g *Game) BigBlind() int { return 2 * g.SmallBlind }

// contending reports whether p can still win the pot: not folded and not
// sitting on an empty stack with nothing committed this round.
func contending(p *Player) bool {
	if p.LastAct == Folded {
		return false
	}
	return p.Funds > 0 || p.Bet > 0
}

// allIn reports whether p has committed their whole stack and therefore
// cannot act again this round.
func allIn(p *Player) bool {
	return p.Funds == 0 && p.Bet > 0 && p.LastAct != Folded
}

func maxBet(players []*Player) int {
	max := 0
	for _, p := range players {
		if p.Bet > max {
			max = p.Bet
		}
	}
	return max
}

func byToken(players []*Player, token string) *Player {
	for _, p := range players {
		if p.Token == token {
			return p
		}
	}
	return nil
}

func byTurn(players []*Player, turn int) *Player {
	for _, p := range players {
		if p.Turn == turn {
			return p
		}
	}
	return nil
}

func sortByTurn(players []*Player) {
	sort.Slice(players, func(i, j int) bool { return players[i].Turn < players[j].Turn })
}
