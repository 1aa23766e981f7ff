package game

// nextActivePlayer walks the table in turn order, skipping folded players,
// and returns the player acting after the one holding afterToken. The scan is
// circular: past the highest seat it wraps back to the lowest eligible one.
//
// It returns false when no hand-off is possible, which happens exactly when
// at most one eligible player remains. Callers treat that as the one-player
// endgame, not as a normal turn change.
func nextActivePlayer(players []*Player, afterToken string) (string, bool) {
	actor := byToken(players, afterToken)
	if actor == nil {
		return "", false
	}

	eligible := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.LastAct != Folded {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) <= 1 {
		return "", false
	}
	sortByTurn(eligible)

	for _, p := range eligible {
		if p.Turn > actor.Turn {
			return p.Token, true
		}
	}
	// Wrapped around the table.
	if eligible[0].Token == actor.Token {
		return "", false
	}
	return eligible[0].Token, true
}
