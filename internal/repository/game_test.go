package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

func TestGameRepository_Create(t *testing.T) {
	t.Run("Create_And_GetByID", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		bob := seedUser(t, ctx, conn, "u2", "bob")

		// Given: a new vs_player game
		game := entity.NewGame("g1", alice.ID, bob.ID, entity.ModeVsPlayer, time.Now().UTC())

		// When: Create is called
		err := gameRepo.Create(ctx, game)

		// Then: the stored game round-trips
		require.NoError(t, err)

		retrieved, err := gameRepo.GetByID(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, retrieved.PlayerXID)
		assert.Equal(t, bob.ID, retrieved.PlayerOID)
		assert.Equal(t, entity.StatusInProgress, retrieved.Status)
		assert.Equal(t, entity.SymbolX, retrieved.CurrentTurn)
		assert.Nil(t, retrieved.EndedAt)
		assert.Empty(t, retrieved.WinnerID)
	})

	t.Run("Create_VacantOpponentSlot", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")

		// Given: a vs_computer game with only the X slot filled
		game := entity.NewGame("g1", alice.ID, "", entity.ModeVsComputer, time.Now().UTC())

		// When: stored and read back
		require.NoError(t, gameRepo.Create(ctx, game))
		retrieved, err := gameRepo.GetByID(ctx, "g1")

		// Then: the O slot stays empty
		require.NoError(t, err)
		assert.Empty(t, retrieved.PlayerOID)
		assert.Equal(t, entity.ModeVsComputer, retrieved.Mode)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		_, err := gameRepo.GetByID(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_SaveMoveAndGame(t *testing.T) {
	t.Run("Persists move and game together without a summary", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		game := entity.NewGame("g1", alice.ID, "", entity.ModeVsComputer, time.Now().UTC())
		require.NoError(t, gameRepo.Create(ctx, game))

		// Given: a first move and the flipped turn
		game.CurrentTurn = entity.SymbolO
		move := &entity.Move{
			GameID:     "g1",
			MoveNumber: 1,
			PlayerID:   alice.ID,
			Row:        0,
			Col:        0,
			Symbol:     entity.SymbolX,
			MovedAt:    time.Now().UTC(),
		}

		// When: SaveMoveAndGame is called with a nil summary
		err := gameRepo.SaveMoveAndGame(ctx, game, move, nil)

		// Then: both records are visible and no history row exists
		require.NoError(t, err)
		assert.Positive(t, move.ID)

		retrieved, err := gameRepo.GetByID(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, entity.SymbolO, retrieved.CurrentTurn)

		moves, err := gameRepo.ListMoves(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, 1, moves[0].MoveNumber)

		history, err := gameRepo.ListHistoryByPlayer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Persists the summary in the same unit on the terminal move", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		bob := seedUser(t, ctx, conn, "u2", "bob")
		game := entity.NewGame("g1", alice.ID, bob.ID, entity.ModeVsPlayer, time.Now().UTC())
		require.NoError(t, gameRepo.Create(ctx, game))

		// Given: the winning ply and the terminal game state
		now := time.Now().UTC()
		game.Status = entity.StatusXWon
		game.WinnerID = alice.ID
		game.EndedAt = &now
		move := &entity.Move{
			GameID: "g1", MoveNumber: 1, PlayerID: alice.ID,
			Row: 0, Col: 0, Symbol: entity.SymbolX, MovedAt: now,
		}
		summary := &entity.MatchSummary{
			GameID:     "g1",
			PlayerXID:  alice.ID,
			PlayerOID:  bob.ID,
			WinnerID:   alice.ID,
			Result:     entity.StatusXWon,
			FinishedAt: now,
		}

		// When: SaveMoveAndGame is called with the summary
		require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, move, summary))

		// Then: both players see exactly one history entry
		for _, playerID := range []string{alice.ID, bob.ID} {
			history, err := gameRepo.ListHistoryByPlayer(ctx, playerID)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, entity.StatusXWon, history[0].Result)
			assert.Equal(t, alice.ID, history[0].WinnerID)
		}
	})

	t.Run("Duplicate move number rolls the whole unit back", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		game := entity.NewGame("g1", alice.ID, "", entity.ModeVsComputer, time.Now().UTC())
		require.NoError(t, gameRepo.Create(ctx, game))

		move := &entity.Move{
			GameID: "g1", MoveNumber: 1, PlayerID: alice.ID,
			Row: 0, Col: 0, Symbol: entity.SymbolX, MovedAt: time.Now().UTC(),
		}
		require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, move, nil))

		// Given: a second write reusing move number 1, as a lost race would
		game.CurrentTurn = entity.SymbolX
		conflicting := &entity.Move{
			GameID: "g1", MoveNumber: 1, PlayerID: alice.ID,
			Row: 1, Col: 1, Symbol: entity.SymbolX, MovedAt: time.Now().UTC(),
		}

		// When: SaveMoveAndGame is called
		err := gameRepo.SaveMoveAndGame(ctx, game, conflicting, nil)

		// Then: the write fails as stale and the move log is unchanged
		assert.ErrorIs(t, err, ErrStaleGame)

		moves, err := gameRepo.ListMoves(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, moves, 1)
	})

	t.Run("Stale write after the winning commit is rejected whole", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		bob := seedUser(t, ctx, conn, "u2", "bob")
		game := entity.NewGame("g1", alice.ID, bob.ID, entity.ModeVsPlayer, time.Now().UTC())
		require.NoError(t, gameRepo.Create(ctx, game))

		// Given: four plies committed in turn order
		for i, ply := range []struct {
			playerID string
			symbol   string
			row, col int
		}{
			{alice.ID, entity.SymbolX, 0, 0},
			{bob.ID, entity.SymbolO, 1, 1},
			{alice.ID, entity.SymbolX, 0, 1},
			{bob.ID, entity.SymbolO, 2, 2},
		} {
			if ply.symbol == entity.SymbolX {
				game.CurrentTurn = entity.SymbolO
			} else {
				game.CurrentTurn = entity.SymbolX
			}
			move := &entity.Move{
				GameID: "g1", MoveNumber: i + 1, PlayerID: ply.playerID,
				Row: ply.row, Col: ply.col, Symbol: ply.symbol, MovedAt: time.Now().UTC(),
			}
			require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, move, nil))
		}

		// And: a snapshot read before the winning move lands
		stale := *game

		now := time.Now().UTC()
		game.Status = entity.StatusXWon
		game.WinnerID = alice.ID
		game.EndedAt = &now
		win := &entity.Move{
			GameID: "g1", MoveNumber: 5, PlayerID: alice.ID,
			Row: 0, Col: 2, Symbol: entity.SymbolX, MovedAt: now,
		}
		summary := &entity.MatchSummary{
			GameID: "g1", PlayerXID: alice.ID, PlayerOID: bob.ID,
			WinnerID: alice.ID, Result: entity.StatusXWon, FinishedAt: now,
		}
		require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, win, summary))

		// When: the stale snapshot tries to append move 6 with its own
		// re-derived summary, the way a double-submit that read the fresh
		// move log but the pre-win game row would
		stale.Status = entity.StatusXWon
		stale.WinnerID = alice.ID
		stale.EndedAt = &now
		lateMove := &entity.Move{
			GameID: "g1", MoveNumber: 6, PlayerID: alice.ID,
			Row: 1, Col: 0, Symbol: entity.SymbolX, MovedAt: time.Now().UTC(),
		}
		lateSummary := &entity.MatchSummary{
			GameID: "g1", PlayerXID: alice.ID, PlayerOID: bob.ID,
			WinnerID: alice.ID, Result: entity.StatusXWon, FinishedAt: now,
		}
		err := gameRepo.SaveMoveAndGame(ctx, &stale, lateMove, lateSummary)

		// Then: the whole unit is rejected and neither log grew
		assert.ErrorIs(t, err, ErrStaleGame)

		moves, err := gameRepo.ListMoves(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, moves, 5)

		history, err := gameRepo.ListHistoryByPlayer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("Stale write after a turn flip is rejected", func(t *testing.T) {
		ctx, conn := newTestDB(t)
		gameRepo := NewGameRepository(conn)

		alice := seedUser(t, ctx, conn, "u1", "alice")
		game := entity.NewGame("g1", alice.ID, "", entity.ModeVsComputer, time.Now().UTC())
		require.NoError(t, gameRepo.Create(ctx, game))

		// Given: the first submit of a double-submitted move has committed
		// and flipped the turn to O
		stale := *game
		game.CurrentTurn = entity.SymbolO
		first := &entity.Move{
			GameID: "g1", MoveNumber: 1, PlayerID: alice.ID,
			Row: 0, Col: 0, Symbol: entity.SymbolX, MovedAt: time.Now().UTC(),
		}
		require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, first, nil))

		// When: the second submit writes against the pre-flip snapshot
		stale.CurrentTurn = entity.SymbolO
		second := &entity.Move{
			GameID: "g1", MoveNumber: 2, PlayerID: alice.ID,
			Row: 1, Col: 0, Symbol: entity.SymbolX, MovedAt: time.Now().UTC(),
		}
		err := gameRepo.SaveMoveAndGame(ctx, &stale, second, nil)

		// Then: the stored turn no longer matches the move's symbol
		assert.ErrorIs(t, err, ErrStaleGame)

		moves, err := gameRepo.ListMoves(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, moves, 1)
	})
}

func TestGameRepository_ListMoves(t *testing.T) {
	ctx, conn := newTestDB(t)
	gameRepo := NewGameRepository(conn)

	alice := seedUser(t, ctx, conn, "u1", "alice")
	bob := seedUser(t, ctx, conn, "u2", "bob")
	game := entity.NewGame("g1", alice.ID, bob.ID, entity.ModeVsPlayer, time.Now().UTC())
	require.NoError(t, gameRepo.Create(ctx, game))

	// Given: three rows inserted out of move order
	for _, ply := range []struct {
		number   int
		playerID string
		symbol   string
	}{
		{2, bob.ID, entity.SymbolO},
		{1, alice.ID, entity.SymbolX},
		{3, alice.ID, entity.SymbolX},
	} {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO moves (game_id, move_number, player_id, row, col, symbol, moved_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			"g1", ply.number, ply.playerID, ply.number-1, 0, ply.symbol, time.Now().UTC(),
		)
		require.NoError(t, err)
	}

	// When: listing moves
	moves, err := gameRepo.ListMoves(ctx, "g1")

	// Then: they come back in move number order
	require.NoError(t, err)
	require.Len(t, moves, 3)
	for i, move := range moves {
		assert.Equal(t, i+1, move.MoveNumber)
	}
}

func TestGameRepository_ListHistoryByPlayer(t *testing.T) {
	ctx, conn := newTestDB(t)
	gameRepo := NewGameRepository(conn)

	alice := seedUser(t, ctx, conn, "u1", "alice")
	bob := seedUser(t, ctx, conn, "u2", "bob")
	carol := seedUser(t, ctx, conn, "u3", "carol")

	base := time.Now().UTC()

	// Given: three finished games at increasing times, one not involving alice
	for i, players := range []struct {
		id       string
		playerX  string
		playerO  string
		finished time.Time
	}{
		{"g1", alice.ID, bob.ID, base},
		{"g2", bob.ID, alice.ID, base.Add(time.Minute)},
		{"g3", bob.ID, carol.ID, base.Add(2 * time.Minute)},
	} {
		game := entity.NewGame(players.id, players.playerX, players.playerO, entity.ModeVsPlayer, base)
		require.NoError(t, gameRepo.Create(ctx, game))

		game.Status = entity.StatusDraw
		game.EndedAt = &players.finished
		move := &entity.Move{
			GameID: players.id, MoveNumber: 1, PlayerID: players.playerX,
			Row: 0, Col: 0, Symbol: entity.SymbolX, MovedAt: players.finished,
		}
		summary := &entity.MatchSummary{
			GameID:     players.id,
			PlayerXID:  players.playerX,
			PlayerOID:  players.playerO,
			Result:     entity.StatusDraw,
			FinishedAt: players.finished,
		}
		require.NoError(t, gameRepo.SaveMoveAndGame(ctx, game, move, summary), i)
	}

	// When: listing alice's history
	history, err := gameRepo.ListHistoryByPlayer(ctx, alice.ID)

	// Then: only her games appear, most recent first
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "g2", history[0].GameID)
	assert.Equal(t, "g1", history[1].GameID)
}
