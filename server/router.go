package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/poker-io/server/server/game"
)

const (
	maxTokenLen = 250
	maxGameID   = 999999
)

// Router wires the external surface: lobby routes, the two gameplay actions
// and the websocket event stream. Gameplay responses follow the original
// wire contract: 200 action applied, 201 hand over, 400 player/request
// invalid, 401 identity check failed, 402 not the player's turn, 429 rate
// limited, 500 anything else.
//
// rateLimit caps requests per client IP per minute on the lobby and
// gameplay routes; zero disables the limiter.
func Router(eng *game.Engine, verifier game.Verifier, ws http.HandlerFunc, logger *log.Logger, rateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	limited := func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
		}
	}

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	if ws != nil {
		r.Get("/ws", ws)
	}

	r.Route("/game", func(r chi.Router) {
		limited(r)
		r.Post("/create", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				Nickname   string `json:"nickname"`
				SmallBlind int    `json:"smallBlind"`
			}
			if !readJSON(w, req, &in) || !validNickname(w, in.Nickname) {
				return
			}
			g, master, err := eng.CreateGame(req.Context(), in.Nickname, in.SmallBlind)
			if err != nil {
				fail(w, logger, err)
				return
			}
			writeJSON(w, map[string]any{
				"gameId":      g.ID,
				"playerToken": master.Token,
				"smallBlind":  g.SmallBlind,
			})
		})

		r.Post("/join", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				Nickname string `json:"nickname"`
				GameID   string `json:"gameId"`
			}
			if !readJSON(w, req, &in) || !validNickname(w, in.Nickname) || !validGameID(w, in.GameID) {
				return
			}
			p, err := eng.Join(req.Context(), in.GameID, in.Nickname)
			if err != nil {
				fail(w, logger, err)
				return
			}
			writeJSON(w, map[string]any{"playerToken": p.Token, "turn": p.Turn})
		})

		r.Post("/leave", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				PlayerToken string `json:"playerToken"`
				GameID      string `json:"gameId"`
			}
			if !readJSON(w, req, &in) || !validToken(w, in.PlayerToken) || !validGameID(w, in.GameID) {
				return
			}
			if err := eng.Leave(req.Context(), in.GameID, in.PlayerToken); err != nil {
				fail(w, logger, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		r.Post("/start", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				PlayerToken string `json:"playerToken"`
				GameID      string `json:"gameId"`
			}
			if !readJSON(w, req, &in) || !validToken(w, in.PlayerToken) || !validGameID(w, in.GameID) {
				return
			}
			if err := eng.Start(req.Context(), in.GameID, in.PlayerToken); err != nil {
				fail(w, logger, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
	})

	r.Route("/gameplay", func(r chi.Router) {
		limited(r)
		r.Get("/fold", func(w http.ResponseWriter, req *http.Request) {
			token, gameID, ok := actionParams(w, req)
			if !ok {
				return
			}
			if err := verifier.Verify(req.Context(), token); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			out, err := eng.Fold(req.Context(), gameID, token)
			respond(w, logger, out, err)
		})

		r.Get("/raise", func(w http.ResponseWriter, req *http.Request) {
			token, gameID, ok := actionParams(w, req)
			if !ok {
				return
			}
			amount, err := strconv.Atoi(req.URL.Query().Get("amount"))
			if err != nil || amount < 0 {
				http.Error(w, "amount must be a non-negative integer", http.StatusBadRequest)
				return
			}
			if err := verifier.Verify(req.Context(), token); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			out, err := eng.Raise(req.Context(), gameID, token, amount)
			respond(w, logger, out, err)
		})
	})

	return r
}

func actionParams(w http.ResponseWriter, req *http.Request) (token, gameID string, ok bool) {
	token = req.URL.Query().Get("playerToken")
	gameID = req.URL.Query().Get("gameId")
	if !validToken(w, token) || !validGameID(w, gameID) {
		return "", "", false
	}
	return token, gameID, true
}

func validToken(w http.ResponseWriter, token string) bool {
	if token == "" || len(token) > maxTokenLen {
		http.Error(w, "playerToken must be 1-250 characters", http.StatusBadRequest)
		return false
	}
	return true
}

func validGameID(w http.ResponseWriter, id string) bool {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || n > maxGameID {
		http.Error(w, "gameId must be a number between 0 and 999999", http.StatusBadRequest)
		return false
	}
	return true
}

func validNickname(w http.ResponseWriter, nick string) bool {
	if nick == "" || len(nick) > 30 {
		http.Error(w, "nickname must be 1-30 characters", http.StatusBadRequest)
		return false
	}
	return true
}

// respond maps an action outcome onto the status contract.
func respond(w http.ResponseWriter, logger *log.Logger, out game.Outcome, err error) {
	if err != nil {
		fail(w, logger, err)
		return
	}
	if out.HandOver {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"winner": out.Winner})
		return
	}
	writeJSON(w, map[string]any{"round": out.Round})
}

func fail(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	}
	w.WriteHeader(status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotPlayersTurn):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrPlayerNotInGame),
		errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInvalidRaise),
		errors.Is(err, game.ErrGameStarted),
		errors.Is(err, game.ErrGameNotStarted),
		errors.Is(err, game.ErrNotGameMaster),
		errors.Is(err, game.ErrNotEnoughPlayers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
