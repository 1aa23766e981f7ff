package game

import (
	"context"
	"sync"
)

// MemStore keeps all games in process memory. It backs the test suite and
// doubles as a zero-dependency store for local development.
type MemStore struct {
	mu      sync.RWMutex
	games   map[string]*Game
	players map[string]*Player // by token
}

func NewMemStore() *MemStore {
	return &MemStore{
		games:   make(map[string]*Game),
		players: make(map[string]*Player),
	}
}

func (m *MemStore) CreateGame(ctx context.Context, g *Game, master *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gc := *g
	pc := *master
	m.games[g.ID] = &gc
	m.players[master.Token] = &pc
	return nil
}

func (m *MemStore) Game(ctx context.Context, gameID string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	gc := *g
	return &gc, nil
}

func (m *MemStore) Players(ctx context.Context, gameID string) ([]*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Player
	for _, p := range m.players {
		if p.GameID == gameID {
			pc := *p
			out = append(out, &pc)
		}
	}
	sortByTurn(out)
	return out, nil
}

func (m *MemStore) AddPlayer(ctx context.Context, p *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc := *p
	m.players[p.Token] = &pc
	return nil
}

func (m *MemStore) RemovePlayer(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, token)
	return nil
}

func (m *MemStore) SaveHand(ctx context.Context, g *Game, players []*Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gc := *g
	m.games[g.ID] = &gc
	for _, p := range players {
		pc := *p
		m.players[p.Token] = &pc
	}
	return nil
}
