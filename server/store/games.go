package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/poker-io/server/server/game"
)

// execer is satisfied by both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB implements game.Store on Postgres. SaveHand is the atomic unit the
// engine relies on: the game row and every touched player row go through one
// transaction.

func (db *DB) CreateGame(ctx context.Context, g *game.Game, master *game.Player) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `
        INSERT INTO games(id, game_master, current_player, pot, small_blind, game_round, started)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, g.ID, g.GameMaster, g.CurrentPlayer, g.Pot, g.SmallBlind, g.Round, g.Started); err != nil {
		return err
	}
	if err := insertPlayer(ctx, tx, master); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (db *DB) Game(ctx context.Context, gameID string) (*game.Game, error) {
	var g game.Game
	err := db.QueryRow(ctx, `
        SELECT id, game_master, current_player, pot, small_blind, game_round, started
          FROM games WHERE id = $1
    `, gameID).Scan(&g.ID, &g.GameMaster, &g.CurrentPlayer, &g.Pot, &g.SmallBlind, &g.Round, &g.Started)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (db *DB) Players(ctx context.Context, gameID string) ([]*game.Player, error) {
	rows, err := db.Query(ctx, `
        SELECT token, nickname, game_id, turn, funds, bet, last_action
          FROM players WHERE game_id = $1 ORDER BY turn
    `, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Player
	for rows.Next() {
		var p game.Player
		var act string
		if err := rows.Scan(&p.Token, &p.Nickname, &p.GameID, &p.Turn, &p.Funds, &p.Bet, &act); err != nil {
			return nil, err
		}
		p.LastAct, err = game.ParseActionState(act)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.Token, err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (db *DB) AddPlayer(ctx context.Context, p *game.Player) error {
	return insertPlayer(ctx, db.Pool, p)
}

func insertPlayer(ctx context.Context, q execer, p *game.Player) error {
	_, err := q.Exec(ctx, `
        INSERT INTO players(token, nickname, game_id, turn, funds, bet, last_action)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, p.Token, p.Nickname, p.GameID, p.Turn, p.Funds, p.Bet, p.LastAct.String())
	return err
}

func (db *DB) RemovePlayer(ctx context.Context, token string) error {
	_, err := db.Exec(ctx, `DELETE FROM players WHERE token = $1`, token)
	return err
}

func (db *DB) SaveHand(ctx context.Context, g *game.Game, players []*game.Player) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        UPDATE games
           SET current_player = $2,
               pot = $3,
               game_round = $4,
               started = $5
         WHERE id = $1
    `, g.ID, g.CurrentPlayer, g.Pot, g.Round, g.Started); err != nil {
		return err
	}
	for _, p := range players {
		if _, err := tx.Exec(ctx, `
            UPDATE players
               SET turn = $2, funds = $3, bet = $4, last_action = $5
             WHERE token = $1
        `, p.Token, p.Turn, p.Funds, p.Bet, p.LastAct.String()); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
