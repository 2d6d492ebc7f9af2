package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

type HistoryService interface {
	// RecordOutcome maps a just-terminalized game to its summary record. It
	// is pure; the orchestrator persists the result inside the same atomic
	// unit as the final move, so a summary exists exactly once per game.
	RecordOutcome(game *entity.Game) *entity.MatchSummary

	ListHistory(ctx context.Context, playerID string) ([]entity.MatchSummary, error)
}

type historyRepo interface {
	ListHistoryByPlayer(ctx context.Context, playerID string) ([]entity.MatchSummary, error)
}

type historyService struct {
	historyRepo historyRepo
}

func NewHistoryService(historyRepo historyRepo) HistoryService {
	return &historyService{
		historyRepo: historyRepo,
	}
}

func (that *historyService) RecordOutcome(game *entity.Game) *entity.MatchSummary {
	finishedAt := time.Now().UTC()
	if game.EndedAt != nil {
		finishedAt = *game.EndedAt
	}

	return &entity.MatchSummary{
		GameID:     game.ID,
		PlayerXID:  game.PlayerXID,
		PlayerOID:  game.PlayerOID,
		WinnerID:   game.WinnerID,
		Result:     game.Status,
		FinishedAt: finishedAt,
	}
}

func (that *historyService) ListHistory(ctx context.Context, playerID string) ([]entity.MatchSummary, error) {
	summaries, err := that.historyRepo.ListHistoryByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match history: %w", err)
	}

	return summaries, nil
}
