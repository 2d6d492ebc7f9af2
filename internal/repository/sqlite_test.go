package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pixelgrid/tictactoe-backend/internal/entity"
	"github.com/pixelgrid/tictactoe-backend/internal/repository/storage"
)

// newTestDB opens a migrated sqlite database in a per-test temp dir.
func newTestDB(t *testing.T) (context.Context, *sql.DB) {
	t.Helper()

	ctx := context.Background()

	sqliteStorage, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, sqliteStorage.Close())
	})

	require.NoError(t, sqliteStorage.Init(ctx))

	return ctx, sqliteStorage.Connection
}

// seedUser inserts a user the foreign keys can point at.
func seedUser(t *testing.T, ctx context.Context, conn *sql.DB, id, username string) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}

	require.NoError(t, NewUserRepository(conn).Create(ctx, user))

	return user
}
