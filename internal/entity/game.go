package entity

import (
	"time"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
)

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusXWon       = "x_won"
	StatusOWon       = "o_won"
	StatusDraw       = "draw"
	StatusAbandoned  = "abandoned"

	SymbolX = "X"
	SymbolO = "O"

	ModeVsPlayer   = "vs_player"
	ModeVsComputer = "vs_computer"
)

// Game represents one match. PlayerOID is empty while the O slot is vacant:
// either awaiting an opponent or permanently unassigned in a vs_computer game.
type Game struct {
	ID          string     `json:"id"`
	PlayerXID   string     `json:"player_x_id"`
	PlayerOID   string     `json:"player_o_id,omitempty"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	CurrentTurn string     `json:"current_turn"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	WinnerID    string     `json:"winner_id,omitempty"`
}

// NewGame - creates a game that starts directly in progress with X to move.
func NewGame(id, playerXID, playerOID, mode string, now time.Time) *Game {
	return &Game{
		ID:          id,
		PlayerXID:   playerXID,
		PlayerOID:   playerOID,
		Mode:        mode,
		Status:      StatusInProgress,
		CurrentTurn: SymbolX,
		StartedAt:   now,
	}
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// IsTerminal reports whether the game reached one of its sink states.
// Terminal games never mutate again.
func (that *Game) IsTerminal() bool {
	switch that.Status {
	case StatusXWon, StatusOWon, StatusDraw, StatusAbandoned:
		return true
	default:
		return false
	}
}

// SymbolOf resolves which mark the given player controls. In a vs_computer
// game the sole human participant always plays X; the computer's O move is
// expected to arrive through an external collaborator, never through here.
func (that *Game) SymbolOf(playerID string) (string, error) {
	switch {
	case playerID == that.PlayerXID:
		return SymbolX, nil
	case that.PlayerOID != "" && playerID == that.PlayerOID:
		return SymbolO, nil
	case that.PlayerOID == "" && that.Mode == ModeVsComputer:
		return SymbolX, nil
	default:
		return "", apperror.ErrPlayerNotInGame
	}
}

// CanBeViewedBy reports whether the player may read this game's state.
func (that *Game) CanBeViewedBy(playerID string) bool {
	if playerID == that.PlayerXID {
		return true
	}
	if that.PlayerOID == "" {
		return true
	}
	return playerID == that.PlayerOID
}

func toggleSymbol(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// AdvanceTurn hands the turn to the other side. No-op on terminal games.
func (that *Game) AdvanceTurn() {
	if that.IsTerminal() {
		return
	}
	that.CurrentTurn = toggleSymbol(that.CurrentTurn)
}
