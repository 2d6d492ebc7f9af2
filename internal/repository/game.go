package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

// ErrStaleGame means the game row changed between the caller's read and its
// write. The caller should reload and re-validate the move.
var ErrStaleGame = errors.New("game state changed concurrently")

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)

	ListMoves(ctx context.Context, gameID string) ([]entity.Move, error)

	// SaveMoveAndGame commits the move append, the game update and - when
	// summary is non-nil - the match history insert as one transaction. The
	// game update only lands if the stored row is still in progress with the
	// mover's symbol on turn; otherwise the whole unit fails with
	// ErrStaleGame. A failure midway leaves the game exactly as it was.
	SaveMoveAndGame(ctx context.Context, game *entity.Game, move *entity.Move, summary *entity.MatchSummary) error

	ListHistoryByPlayer(ctx context.Context, playerID string) ([]entity.MatchSummary, error)
}

type gameRepository struct {
	conn *sql.DB
}

func NewGameRepository(conn *sql.DB) GameRepository {
	return &gameRepository{
		conn: conn,
	}
}

func (that *gameRepository) Create(ctx context.Context, game *entity.Game) error {
	query := `INSERT INTO games (id, player_x_id, player_o_id, mode, status, current_turn, started_at, ended_at, winner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		game.ID, game.PlayerXID, nullString(game.PlayerOID), game.Mode, game.Status,
		game.CurrentTurn, game.StartedAt, nullTime(game.EndedAt), nullString(game.WinnerID),
	)
	if err != nil {
		return fmt.Errorf("can't save game: %w", err)
	}

	return nil
}

func (that *gameRepository) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT id, player_x_id, player_o_id, mode, status, current_turn, started_at, ended_at, winner_id
		FROM games WHERE id = ?`

	var (
		game     entity.Game
		playerO  sql.NullString
		winnerID sql.NullString
		endedAt  sql.NullTime
	)

	err := that.conn.QueryRowContext(ctx, query, id).Scan(
		&game.ID, &game.PlayerXID, &playerO, &game.Mode, &game.Status,
		&game.CurrentTurn, &game.StartedAt, &endedAt, &winnerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find game: %w", err)
	}

	game.PlayerOID = playerO.String
	game.WinnerID = winnerID.String
	if endedAt.Valid {
		game.EndedAt = &endedAt.Time
	}

	return &game, nil
}

func (that *gameRepository) ListMoves(ctx context.Context, gameID string) ([]entity.Move, error) {
	query := `SELECT id, game_id, move_number, player_id, row, col, symbol, moved_at
		FROM moves WHERE game_id = ? ORDER BY move_number`

	rows, err := that.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("can't list moves: %w", err)
	}
	defer rows.Close()

	var moves []entity.Move
	for rows.Next() {
		var move entity.Move
		if err = rows.Scan(&move.ID, &move.GameID, &move.MoveNumber, &move.PlayerID, &move.Row, &move.Col, &move.Symbol, &move.MovedAt); err != nil {
			return nil, fmt.Errorf("can't scan move: %w", err)
		}
		moves = append(moves, move)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate moves: %w", err)
	}

	return moves, nil
}

func (that *gameRepository) SaveMoveAndGame(ctx context.Context, game *entity.Game, move *entity.Move, summary *entity.MatchSummary) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// every committed move either flips the turn or ends the game, so the
	// pair (in_progress, mover's symbol on turn) versions the row the move
	// was validated against
	updateQuery := `UPDATE games SET status = ?, current_turn = ?, ended_at = ?, winner_id = ?
		WHERE id = ? AND status = ? AND current_turn = ?`
	updated, err := tx.ExecContext(ctx, updateQuery,
		game.Status, game.CurrentTurn, nullTime(game.EndedAt), nullString(game.WinnerID),
		game.ID, entity.StatusInProgress, move.Symbol,
	)
	if err != nil {
		return fmt.Errorf("can't update game: %w", err)
	}

	affected, err := updated.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read update result: %w", err)
	}
	if affected == 0 {
		return ErrStaleGame
	}

	moveQuery := `INSERT INTO moves (game_id, move_number, player_id, row, col, symbol, moved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, moveQuery,
		move.GameID, move.MoveNumber, move.PlayerID, move.Row, move.Col, move.Symbol, move.MovedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrStaleGame
		}
		return fmt.Errorf("can't save move: %w", err)
	}

	if move.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("can't read move id: %w", err)
	}

	if summary != nil {
		historyQuery := `INSERT INTO match_history (game_id, player_x_id, player_o_id, winner_id, result, finished_at)
			VALUES (?, ?, ?, ?, ?, ?)`
		if _, err = tx.ExecContext(ctx, historyQuery,
			summary.GameID, summary.PlayerXID, nullString(summary.PlayerOID),
			nullString(summary.WinnerID), summary.Result, summary.FinishedAt,
		); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return ErrStaleGame
			}
			return fmt.Errorf("can't save match history: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	return nil
}

func (that *gameRepository) ListHistoryByPlayer(ctx context.Context, playerID string) ([]entity.MatchSummary, error) {
	query := `SELECT id, game_id, player_x_id, player_o_id, winner_id, result, finished_at
		FROM match_history WHERE player_x_id = ? OR player_o_id = ? ORDER BY finished_at DESC, id DESC`

	rows, err := that.conn.QueryContext(ctx, query, playerID, playerID)
	if err != nil {
		return nil, fmt.Errorf("can't list match history: %w", err)
	}
	defer rows.Close()

	var summaries []entity.MatchSummary
	for rows.Next() {
		var (
			summary  entity.MatchSummary
			playerO  sql.NullString
			winnerID sql.NullString
		)
		if err = rows.Scan(&summary.ID, &summary.GameID, &summary.PlayerXID, &playerO, &winnerID, &summary.Result, &summary.FinishedAt); err != nil {
			return nil, fmt.Errorf("can't scan match history: %w", err)
		}
		summary.PlayerOID = playerO.String
		summary.WinnerID = winnerID.String
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate match history: %w", err)
	}

	return summaries, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
