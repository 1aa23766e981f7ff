package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/poker-io/server/server/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

var ErrUnknownToken = errors.New("token has no registered session")

// Hub keeps one websocket session per player token and fans game events out
// to them. Delivery is best effort: a slow or dead session is dropped, never
// waited on. The hub also serves as the identity check — a token is
// considered verified once it holds (or has held) a session. With Open set,
// any token passes, mirroring deployments without a push channel.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	open     bool

	mu       sync.RWMutex
	sessions map[string]*session
	seen     map[string]bool
}

func NewHub(logger *log.Logger, open bool) *Hub {
	return &Hub{
		logger: logger.WithPrefix("notify"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		open:     open,
		sessions: make(map[string]*session),
		seen:     make(map[string]bool),
	}
}

// Verify implements game.Verifier.
func (h *Hub) Verify(ctx context.Context, token string) error {
	if h.open {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.seen[token] {
		return nil
	}
	return ErrUnknownToken
}

// Broadcast implements game.Notifier. Events go to every recipient with a
// live session; everyone else just misses the push.
func (h *Hub) Broadcast(gameID string, recipients []string, ev game.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "err", err)
		return
	}
	h.mu.RLock()
	targets := make([]*session, 0, len(recipients))
	for _, token := range recipients {
		if s, ok := h.sessions[token]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range targets {
		s.enqueue(payload)
	}
	h.logger.Debug("event broadcast", "game", gameID, "type", ev.Type, "sessions", len(targets))
}

// Sessions reports how many player sessions are currently live.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Handler upgrades GET /ws?playerToken=... to the event stream.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("playerToken")
		if token == "" {
			http.Error(w, "playerToken required", http.StatusBadRequest)
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("upgrade failed", "err", err)
			return
		}
		s := &session{hub: h, token: token, conn: conn, send: make(chan []byte, 64)}
		h.register(s)
		go s.writePump()
		go s.readPump()
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	if old, ok := h.sessions[s.token]; ok {
		old.close()
	}
	h.sessions[s.token] = s
	h.seen[s.token] = true
	h.mu.Unlock()
	h.logger.Info("session registered")
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if h.sessions[s.token] == s {
		delete(h.sessions, s.token)
	}
	h.mu.Unlock()
}

type session struct {
	hub       *Hub
	token     string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// enqueue never blocks; a full buffer drops the session.
func (s *session) enqueue(payload []byte) {
	defer func() {
		// Session closed while enqueueing.
		_ = recover()
	}()
	select {
	case s.send <- payload:
	default:
		s.hub.logger.Warn("session buffer full, dropping")
		s.hub.unregister(s)
		s.close()
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; clients only listen on this socket. It
// exists to notice the peer going away.
func (s *session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.close()
	}()
	s.conn.SetReadLimit(1024)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
