package game

import "context"

// Store is the persistence boundary the engine drives. Implementations must
// make SaveHand atomic: either the game row and every player row land
// together or none of them do, so a failed action never leaves funds, bets
// and the pot disagreeing.
type Store interface {
	CreateGame(ctx context.Context, g *Game, master *Player) error
	Game(ctx context.Context, gameID string) (*Game, error)
	Players(ctx context.Context, gameID string) ([]*Player, error)
	AddPlayer(ctx context.Context, p *Player) error
	RemovePlayer(ctx context.Context, token string) error
	SaveHand(ctx context.Context, g *Game, players []*Player) error
}

// Notifier delivers an event to the given recipients, best effort. The
// engine calls it after state has committed and never waits on delivery;
// a lost notification must not affect game state.
type Notifier interface {
	Broadcast(gameID string, recipients []string, ev Event)
}

// Verifier authenticates a caller's token before an action reaches the
// engine. The engine itself trusts any token it is handed.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// NopNotifier drops every event. Useful for tests and for running without a
// push channel configured.
type NopNotifier struct{}

func (NopNotifier) Broadcast(string, []string, Event) {}
