package game

import "errors"

// Validation failures are detected before any state changes and map directly
// onto the HTTP contract the routes expose.
var (
	ErrGameNotFound      = errors.New("game not found")
	ErrPlayerNotInGame   = errors.New("player is not in this game")
	ErrNotPlayersTurn    = errors.New("not this player's turn")
	ErrInsufficientFunds = errors.New("insufficient funds for raise")
	ErrInvalidRaise      = errors.New("raise below current bet")
	ErrGameStarted       = errors.New("game already started")
	ErrGameNotStarted    = errors.New("game not started")
	ErrNotGameMaster     = errors.New("only the game master may do this")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
)
