package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixelgrid/tictactoe-backend/internal/tictactoe"
)

var ErrBoardNotCached = errors.New("board not cached")

const boardCacheTTL = 24 * time.Hour

// BoardCache holds a materialized copy of a game's reconstructed board, keyed
// by game id. It is a read optimization only: the move log stays the source
// of truth, and every append invalidates the entry first.
type BoardCache interface {
	Get(ctx context.Context, gameID string) (tictactoe.Board, error)
	Set(ctx context.Context, gameID string, board tictactoe.Board) error
	Invalidate(ctx context.Context, gameID string) error
}

type boardCache struct {
	client *redis.Client
}

func NewBoardCache(client *redis.Client) BoardCache {
	return &boardCache{
		client: client,
	}
}

func (that *boardCache) Get(ctx context.Context, gameID string) (tictactoe.Board, error) {
	var board tictactoe.Board

	response, err := that.client.Get(ctx, boardKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return board, ErrBoardNotCached
	}
	if err != nil {
		return board, fmt.Errorf("failed to get board: %w", err)
	}

	if err = json.Unmarshal([]byte(response), &board); err != nil {
		return board, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return board, nil
}

func (that *boardCache) Set(ctx context.Context, gameID string, board tictactoe.Board) error {
	boardJSON, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	if err = that.client.Set(ctx, boardKey(gameID), boardJSON, boardCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set board: %w", err)
	}

	return nil
}

func (that *boardCache) Invalidate(ctx context.Context, gameID string) error {
	if err := that.client.Del(ctx, boardKey(gameID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate board: %w", err)
	}

	return nil
}

func boardKey(gameID string) string {
	return "board:" + gameID
}
