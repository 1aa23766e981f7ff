package game

// resolveHand runs after every applied action and is the only place the hand
// advances: it either declares a sole surviving winner, settles the betting
// round, or hands the turn to the next active player.
func resolveHand(g *Game, players []*Player, actor *Player) (Outcome, []Event) {
	// Sole-survivor check first: if everyone but one player has folded or
	// busted out, that player wins and the hand is over. This is terminal;
	// no further turn changes happen.
	var last *Player
	contenders := 0
	for _, p := range players {
		if contending(p) {
			contenders++
			last = p
		}
	}
	if contenders == 1 {
		last.LastAct = Won
		g.CurrentPlayer = ""
		return Outcome{HandOver: true, Winner: last.Token, Round: g.Round}, []Event{wonEvent(last)}
	}
	if contenders == 0 {
		// Everyone left is folded or busted with nothing committed. No one
		// can contest the pot, so the hand ends with no winner instead of
		// settling empty rounds forever.
		g.CurrentPlayer = ""
		return Outcome{HandOver: true, Round: g.Round}, nil
	}

	if roundSettled(players) {
		g.Round++
		for _, p := range players {
			p.Bet = 0
			if p.LastAct != Folded {
				p.LastAct = NoAction
			}
		}
		g.CurrentPlayer = firstEligible(players).Token
		return Outcome{Round: g.Round}, []Event{roundEvent(g.Round)}
	}

	if next, ok := nextActivePlayer(players, actor.Token); ok {
		g.CurrentPlayer = next
	}
	return Outcome{Round: g.Round}, nil
}

// roundSettled is true once every player still contesting the pot has acted
// this round and matches the highest bet. All-in players cannot act again
// and are exempt from matching. This single predicate covers both the
// "lone raiser, everyone else called" case and the round where everyone
// checks without a raise ever being made.
func roundSettled(players []*Player) bool {
	target := maxBet(players)
	for _, p := range players {
		if !contending(p) || allIn(p) {
			continue
		}
		if p.LastAct == NoAction {
			return false
		}
		if p.Bet != target {
			return false
		}
	}
	return true
}

// firstEligible returns the lowest-seated player who has not folded. A new
// round starts at seat 0 unless that seat is out of the hand.
func firstEligible(players []*Player) *Player {
	sortByTurn(players)
	for _, p := range players {
		if p.LastAct != Folded {
			return p
		}
	}
	return players[0]
}
