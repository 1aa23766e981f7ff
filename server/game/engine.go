package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Engine owns all game-state transitions. Every mutation of funds, bets, the
// pot, the current player or the round counter goes through here, under a
// per-game lock, and is written back as one atomic store operation. Games are
// independent: actions on different games never block each other.
type Engine struct {
	store  Store
	notify Notifier
	log    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(store Store, notifier Notifier, logger *log.Logger) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		store:  store,
		notify: notifier,
		log:    logger.WithPrefix("engine"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockGame serializes actions within one game. The returned func releases
// the lock.
func (e *Engine) lockGame(gameID string) func() {
	e.mu.Lock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Outcome reports how an applied action left the hand.
type Outcome struct {
	HandOver bool
	Winner   string
	Round    int
}

/* -----------------------------
   Lobby
------------------------------*/

// CreateGame seats the game master at turn 0 of a fresh table.
func (e *Engine) CreateGame(ctx context.Context, nickname string, smallBlind int) (*Game, *Player, error) {
	if smallBlind <= 0 {
		smallBlind = SmallBlindDefault
	}
	id, err := e.newGameID(ctx)
	if err != nil {
		return nil, nil, err
	}
	master := &Player{
		Token:    uuid.NewString(),
		Nickname: nickname,
		GameID:   id,
		Turn:     0,
		Funds:    StartingFundsDefault,
	}
	g := &Game{
		ID:         id,
		GameMaster: master.Token,
		SmallBlind: smallBlind,
	}
	if err := e.store.CreateGame(ctx, g, master); err != nil {
		return nil, nil, fmt.Errorf("create game: %w", err)
	}
	e.log.Info("game created", "game", g.ID, "blind", smallBlind)
	return g, master, nil
}

// Game ids mimic the original service: six decimal digits. Retry on the
// rare collision.
func (e *Engine) newGameID(ctx context.Context) (string, error) {
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("%06d", rand.IntN(1_000_000))
		if _, err := e.store.Game(ctx, id); errors.Is(err, ErrGameNotFound) {
			return id, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate game id")
}

// Join seats a new player at the next turn index. Only possible before the
// game starts, so seat numbers stay contiguous at start.
func (e *Engine) Join(ctx context.Context, gameID, nickname string) (*Player, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	g, err := e.store.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Started {
		return nil, ErrGameStarted
	}
	players, err := e.store.Players(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p := &Player{
		Token:    uuid.NewString(),
		Nickname: nickname,
		GameID:   gameID,
		Turn:     len(players),
		Funds:    StartingFundsDefault,
	}
	if err := e.store.AddPlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("add player: %w", err)
	}
	e.log.Info("player joined", "game", gameID, "turn", p.Turn)
	return p, nil
}

// Leave removes a player before the game starts and closes the seat gap so
// turns stay contiguous. The game master cannot leave their own table.
func (e *Engine) Leave(ctx context.Context, gameID, token string) error {
	unlock := e.lockGame(gameID)
	defer unlock()

	g, err := e.store.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Started {
		return ErrGameStarted
	}
	if g.GameMaster == token {
		return ErrNotGameMaster
	}
	players, err := e.store.Players(ctx, gameID)
	if err != nil {
		return err
	}
	leaver := byToken(players, token)
	if leaver == nil {
		return ErrPlayerNotInGame
	}
	var remaining []*Player
	for _, p := range players {
		if p.Token == token {
			continue
		}
		if p.Turn > leaver.Turn {
			p.Turn--
		}
		remaining = append(remaining, p)
	}
	if err := e.store.RemovePlayer(ctx, token); err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	if err := e.store.SaveHand(ctx, g, remaining); err != nil {
		return fmt.Errorf("reseat players: %w", err)
	}
	e.log.Info("player left", "game", gameID)
	return nil
}

// Start posts the blinds and opens the first betting round. Turn 0 owes the
// small blind, turn 1 the big blind; both are committed to the pot up front,
// which is what lets a blind seat later raise while only paying the
// difference.
func (e *Engine) Start(ctx context.Context, gameID, token string) error {
	unlock := e.lockGame(gameID)
	defer unlock()

	g, err := e.store.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if g.GameMaster != token {
		return ErrNotGameMaster
	}
	if g.Started {
		return ErrGameStarted
	}
	players, err := e.store.Players(ctx, gameID)
	if err != nil {
		return err
	}
	if len(players) < 2 {
		return ErrNotEnoughPlayers
	}
	sortByTurn(players)
	postBlind(g, players[0], g.SmallBlind)
	postBlind(g, players[1], g.BigBlind())
	g.Started = true
	g.CurrentPlayer = players[0].Token
	if err := e.store.SaveHand(ctx, g, players); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	e.log.Info("game started", "game", gameID, "players", len(players))
	return nil
}

func postBlind(g *Game, p *Player, blind int) {
	if blind > p.Funds {
		blind = p.Funds
	}
	p.Funds -= blind
	p.Bet += blind
	g.Pot += blind
}

/* -----------------------------
   Actions
------------------------------*/

// Fold takes the acting player out of the hand.
func (e *Engine) Fold(ctx context.Context, gameID, token string) (Outcome, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	g, players, p, err := e.loadActing(ctx, gameID, token)
	if err != nil {
		return Outcome{}, err
	}
	p.LastAct = Folded
	evs := []Event{foldEvent(p)}
	out, more := resolveHand(g, players, p)
	evs = append(evs, more...)

	if err := e.store.SaveHand(ctx, g, players); err != nil {
		return Outcome{}, fmt.Errorf("save hand: %w", err)
	}
	e.broadcast(gameID, players, evs)
	e.log.Debug("fold applied", "game", gameID, "round", g.Round, "handOver", out.HandOver)
	return out, nil
}

// Raise sets the acting player's round contribution to amount. A raise to
// exactly the table's current maximum bet is a call (and a raise to the
// player's own bet, a check); only exceeding the maximum counts as raising.
func (e *Engine) Raise(ctx context.Context, gameID, token string, amount int) (Outcome, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	g, players, p, err := e.loadActing(ctx, gameID, token)
	if err != nil {
		return Outcome{}, err
	}
	if amount < p.Bet {
		return Outcome{}, ErrInvalidRaise
	}
	// Blinds already posted count toward the target amount, so the blind
	// seats only owe the difference on their first voluntary action.
	needed := amount - p.Bet
	if needed > p.Funds {
		return Outcome{}, ErrInsufficientFunds
	}
	raising := amount > maxBet(players)
	p.Funds -= needed
	p.Bet = amount
	g.Pot += needed
	if raising {
		p.LastAct = Raised
	} else {
		p.LastAct = Called
	}
	evs := []Event{raiseEvent(p, amount, raising)}
	out, more := resolveHand(g, players, p)
	evs = append(evs, more...)

	if err := e.store.SaveHand(ctx, g, players); err != nil {
		return Outcome{}, fmt.Errorf("save hand: %w", err)
	}
	e.broadcast(gameID, players, evs)
	e.log.Debug("raise applied", "game", gameID, "amount", amount, "raising", raising, "round", g.Round)
	return out, nil
}

// loadActing fetches the game and roster and runs the ordered action
// preconditions: the player must be seated at this game, the game must have
// started, and it must be their turn. Nothing is mutated here.
func (e *Engine) loadActing(ctx context.Context, gameID, token string) (*Game, []*Player, *Player, error) {
	g, err := e.store.Game(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	players, err := e.store.Players(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	p := byToken(players, token)
	if p == nil {
		return nil, nil, nil, ErrPlayerNotInGame
	}
	if !g.Started {
		return nil, nil, nil, ErrGameNotStarted
	}
	if g.CurrentPlayer != token || p.LastAct == Folded {
		return nil, nil, nil, ErrNotPlayersTurn
	}
	return g, players, p, nil
}

// broadcast fans events out to the whole table after the state change has
// committed. Delivery is asynchronous and best effort.
func (e *Engine) broadcast(gameID string, players []*Player, evs []Event) {
	if len(evs) == 0 {
		return
	}
	tokens := make([]string, 0, len(players))
	for _, p := range players {
		tokens = append(tokens, p.Token)
	}
	go func() {
		for _, ev := range evs {
			e.notify.Broadcast(gameID, tokens, ev)
		}
	}()
}
