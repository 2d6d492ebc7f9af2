package tictactoe

import (
	"fmt"
	"time"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

// ApplyMove validates one ply against the game and its move log, mutates the
// game accordingly, and returns the appended move, the post-move board and
// the outcome. The caller persists the move, the game and - on a terminal
// outcome - the match summary as one atomic unit; nothing is persisted here.
//
// A terminal game rejects every move with ErrGameNotActive; there is no
// undo, resignation or rematch. Abandonment is never set here, only by an
// external collaborator such as a timeout service.
func ApplyMove(game *entity.Game, moves []entity.Move, playerID string, row, col int, now time.Time) (*entity.Move, Board, Outcome, error) {
	var board Board

	if !game.IsInProgress() {
		return nil, board, OutcomeNone, apperror.ErrGameNotActive
	}

	symbol, err := game.SymbolOf(playerID)
	if err != nil {
		return nil, board, OutcomeNone, err
	}

	if symbol != game.CurrentTurn {
		return nil, board, OutcomeNone, apperror.ErrNotYourTurn
	}

	// Bounds are validated upstream too, but this is the authoritative check.
	if !inBounds(row, col) {
		return nil, board, OutcomeNone, fmt.Errorf("%w: cell (%d,%d)", apperror.ErrOutOfBounds, row, col)
	}

	board, err = Reconstruct(moves)
	if err != nil {
		return nil, board, OutcomeNone, fmt.Errorf("failed to reconstruct board: %w", err)
	}

	if board[cellIndex(row, col)] != EmptyCell {
		return nil, board, OutcomeNone, apperror.ErrCellOccupied
	}

	move := &entity.Move{
		GameID:     game.ID,
		MoveNumber: len(moves) + 1,
		PlayerID:   playerID,
		Row:        row,
		Col:        col,
		Symbol:     symbol,
		MovedAt:    now,
	}

	board[cellIndex(row, col)] = symbol

	outcome := Evaluate(board)
	switch outcome {
	case OutcomeXWon:
		game.Status = entity.StatusXWon
		game.WinnerID = game.PlayerXID
		game.EndedAt = &now
	case OutcomeOWon:
		game.Status = entity.StatusOWon
		game.WinnerID = game.PlayerOID
		game.EndedAt = &now
	case OutcomeDraw:
		game.Status = entity.StatusDraw
		game.EndedAt = &now
	case OutcomeNone:
		game.AdvanceTurn()
	}

	return move, board, outcome, nil
}
