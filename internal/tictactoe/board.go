package tictactoe

import (
	"fmt"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

const (
	EmptyCell = ""

	boardSize = 3
	cellCount = boardSize * boardSize
)

// Outcome is the result of evaluating a board position.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeXWon Outcome = "x_won"
	OutcomeOWon Outcome = "o_won"
	OutcomeDraw Outcome = "draw"
)

// Board is a 3x3 grid stored row-major: index = row*3 + col.
type Board [cellCount]string

// WinCombos lists the 8 winning lines in scan order: rows, then columns,
// then diagonals. Evaluate returns the first completed line it finds; with
// one move per turn two lines for different marks can never complete in the
// same position, so the order only matters for corrupt input and is kept
// deliberately fixed rather than guessed around.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func cellIndex(row, col int) int {
	return row*boardSize + col
}

func inBounds(row, col int) bool {
	return row >= 0 && row < boardSize && col >= 0 && col < boardSize
}

// Reconstruct replays moves in MoveNumber order and returns the resulting
// board. The move log is the source of truth for the board; every read path
// goes through here. A move targeting an occupied or out-of-range cell fails
// with ErrInvalidMoveSequence - legality was enforced at write time, so that
// error means the stored log is corrupt.
func Reconstruct(moves []entity.Move) (Board, error) {
	var board Board

	for _, move := range moves {
		if !inBounds(move.Row, move.Col) {
			return board, fmt.Errorf("%w: move %d targets cell (%d,%d)", apperror.ErrInvalidMoveSequence, move.MoveNumber, move.Row, move.Col)
		}

		idx := cellIndex(move.Row, move.Col)
		if board[idx] != EmptyCell {
			return board, fmt.Errorf("%w: move %d targets occupied cell (%d,%d)", apperror.ErrInvalidMoveSequence, move.MoveNumber, move.Row, move.Col)
		}

		board[idx] = move.Symbol
	}

	return board, nil
}

// Evaluate checks the 8 lines and reports the position's outcome. A win is
// checked before a draw; a draw requires all 9 cells occupied with no
// completed line.
func Evaluate(board Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			if a == entity.SymbolX {
				return OutcomeXWon
			}
			return OutcomeOWon
		}
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return OutcomeNone
		}
	}

	return OutcomeDraw
}

// Cells returns the board as a 3x3 grid for API responses.
func (that Board) Cells() [boardSize][boardSize]string {
	var grid [boardSize][boardSize]string
	for row := 0; row < boardSize; row++ {
		for col := 0; col < boardSize; col++ {
			grid[row][col] = that[cellIndex(row, col)]
		}
	}
	return grid
}
