package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
	"github.com/pixelgrid/tictactoe-backend/internal/repository"
	"github.com/pixelgrid/tictactoe-backend/internal/tictactoe"
)

// MoveResult is what the API layer gets back from a move. Winner carries the
// winner's username only when the winner is the requesting player; other
// identities are resolved by the caller.
type MoveResult struct {
	Board  [3][3]string
	Status string
	Winner string
	IsDraw bool
}

// MoveEntry is one ply of a game's move list with the player resolved to
// display form.
type MoveEntry struct {
	MoveNumber int
	Player     string
	Row        int
	Col        int
	Symbol     string
	MovedAt    time.Time
}

// GameView is the full state of a game as seen by a participant.
type GameView struct {
	GameID      string
	Board       [3][3]string
	CurrentTurn string
	Status      string
	Moves       []MoveEntry
	PlayerX     string
	PlayerO     string
	Winner      string
	IsDraw      bool
}

type GamePlayService interface {
	StartGame(ctx context.Context, creator *entity.User, opponentUsername, mode string) (*entity.Game, error)
	MakeMove(ctx context.Context, gameID string, player *entity.User, row, col int) (*MoveResult, error)
	GetGameState(ctx context.Context, gameID string, player *entity.User) (*GameView, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	ListMoves(ctx context.Context, gameID string) ([]entity.Move, error)
	SaveMoveAndGame(ctx context.Context, game *entity.Game, move *entity.Move, summary *entity.MatchSummary) error
}

type boardCache interface {
	Get(ctx context.Context, gameID string) (tictactoe.Board, error)
	Set(ctx context.Context, gameID string, board tictactoe.Board) error
	Invalidate(ctx context.Context, gameID string) error
}

type userFinder interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type outcomeRecorder interface {
	RecordOutcome(game *entity.Game) *entity.MatchSummary
}

type gamePlayService struct {
	logger *slog.Logger

	gameRepo   gameRepo
	boardCache boardCache
	users      userFinder
	history    outcomeRecorder
}

func NewGamePlayService(logger *slog.Logger, gameRepo gameRepo, boardCache boardCache, users userFinder, history outcomeRecorder) GamePlayService {
	return &gamePlayService{
		logger:     logger,
		gameRepo:   gameRepo,
		boardCache: boardCache,
		users:      users,
		history:    history,
	}
}

// StartGame creates a match for the creator. A vs_player game needs an
// opponent username that resolves to a distinct registered player; a
// supplied opponent that doesn't resolve, or resolves to the creator, fails
// with ErrInvalidOpponent. Without an opponent the game is vs_computer with
// only the X slot filled. Either way the game starts directly in progress
// with X to move; no move or history row exists yet.
func (that *gamePlayService) StartGame(ctx context.Context, creator *entity.User, opponentUsername, mode string) (*entity.Game, error) {
	now := time.Now().UTC()

	var game *entity.Game

	if mode == entity.ModeVsPlayer && opponentUsername != "" {
		opponent, err := that.users.GetByUsername(ctx, strings.ToLower(opponentUsername))
		if err != nil {
			if errors.Is(err, apperror.ErrUserNotFound) {
				return nil, apperror.ErrInvalidOpponent
			}
			return nil, fmt.Errorf("failed to resolve opponent: %w", err)
		}

		if opponent.ID == creator.ID {
			return nil, apperror.ErrInvalidOpponent
		}

		game = entity.NewGame(uuid.NewString(), creator.ID, opponent.ID, entity.ModeVsPlayer, now)
	} else {
		game = entity.NewGame(uuid.NewString(), creator.ID, "", entity.ModeVsComputer, now)
	}

	if err := that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

const maxMoveAttempts = 3

// MakeMove loads the game and its move log, applies the ply through the
// engine and persists move, game and - on the in_progress to terminal edge -
// exactly one match summary as a single atomic unit. When the persist is
// rejected because another writer got in between the read and the write, the
// whole read-validate-write cycle reruns against the fresh state, so the
// loser of the race gets the proper verdict (ErrGameNotActive,
// ErrNotYourTurn, ErrCellOccupied) instead of a forked game.
func (that *gamePlayService) MakeMove(ctx context.Context, gameID string, player *entity.User, row, col int) (*MoveResult, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID)

	for attempt := 1; attempt <= maxMoveAttempts; attempt++ {
		result, err := that.tryMove(ctx, log, gameID, player, row, col)
		if errors.Is(err, repository.ErrStaleGame) {
			log.Warn("move lost a write race, retrying", "attempt", attempt)
			continue
		}
		return result, err
	}

	return nil, fmt.Errorf("failed to apply move after %d attempts: %w", maxMoveAttempts, repository.ErrStaleGame)
}

func (that *gamePlayService) tryMove(ctx context.Context, log *slog.Logger, gameID string, player *entity.User, row, col int) (*MoveResult, error) {
	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	moves, err := that.gameRepo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	// the cached board is stale the moment a move is accepted
	if err = that.boardCache.Invalidate(ctx, gameID); err != nil {
		log.Warn("failed to invalidate board cache", "error", err)
	}

	move, board, outcome, err := tictactoe.ApplyMove(game, moves, player.ID, row, col, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidMoveSequence) {
			log.Error("stored move log failed to replay", "error", err)
		}
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	var summary *entity.MatchSummary
	if outcome != tictactoe.OutcomeNone {
		summary = that.history.RecordOutcome(game)
	}

	if err = that.gameRepo.SaveMoveAndGame(ctx, game, move, summary); err != nil {
		return nil, fmt.Errorf("failed to save move: %w", err)
	}

	if err = that.boardCache.Set(ctx, gameID, board); err != nil {
		log.Warn("failed to refresh board cache", "error", err)
	}

	result := &MoveResult{
		Board:  board.Cells(),
		Status: game.Status,
		IsDraw: outcome == tictactoe.OutcomeDraw,
	}
	if game.WinnerID != "" && game.WinnerID == player.ID {
		result.Winner = player.Username
	}

	return result, nil
}

func (that *gamePlayService) GetGameState(ctx context.Context, gameID string, player *entity.User) (*GameView, error) {
	log := that.logger.With("method", "GetGameState", "gameID", gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if !game.CanBeViewedBy(player.ID) {
		return nil, apperror.ErrNotAuthorized
	}

	moves, err := that.gameRepo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	board, err := that.loadBoard(ctx, log, gameID, moves)
	if err != nil {
		return nil, err
	}

	view := &GameView{
		GameID:      game.ID,
		Board:       board.Cells(),
		CurrentTurn: game.CurrentTurn,
		Status:      game.Status,
		IsDraw:      game.Status == entity.StatusDraw,
	}

	usernames := make(map[string]string)
	if view.PlayerX, err = that.resolveUsername(ctx, usernames, game.PlayerXID); err != nil {
		return nil, err
	}
	if view.PlayerO, err = that.resolveUsername(ctx, usernames, game.PlayerOID); err != nil {
		return nil, err
	}
	if view.Winner, err = that.resolveUsername(ctx, usernames, game.WinnerID); err != nil {
		return nil, err
	}

	for _, move := range moves {
		username, err := that.resolveUsername(ctx, usernames, move.PlayerID)
		if err != nil {
			return nil, err
		}

		view.Moves = append(view.Moves, MoveEntry{
			MoveNumber: move.MoveNumber,
			Player:     username,
			Row:        move.Row,
			Col:        move.Col,
			Symbol:     move.Symbol,
			MovedAt:    move.MovedAt,
		})
	}

	return view, nil
}

// loadBoard serves the board from the cache when possible and falls back to
// replaying the move log. The replayed board refreshes the cache.
func (that *gamePlayService) loadBoard(ctx context.Context, log *slog.Logger, gameID string, moves []entity.Move) (tictactoe.Board, error) {
	board, err := that.boardCache.Get(ctx, gameID)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, repository.ErrBoardNotCached) {
		log.Warn("failed to read board cache", "error", err)
	}

	board, err = tictactoe.Reconstruct(moves)
	if err != nil {
		log.Error("stored move log failed to replay", "error", err)
		return board, fmt.Errorf("failed to reconstruct board: %w", err)
	}

	if err = that.boardCache.Set(ctx, gameID, board); err != nil {
		log.Warn("failed to refresh board cache", "error", err)
	}

	return board, nil
}

func (that *gamePlayService) resolveUsername(ctx context.Context, cache map[string]string, playerID string) (string, error) {
	if playerID == "" {
		return "", nil
	}

	if username, ok := cache[playerID]; ok {
		return username, nil
	}

	user, err := that.users.GetByID(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve player %s: %w", playerID, err)
	}

	cache[playerID] = user.Username

	return user.Username, nil
}
