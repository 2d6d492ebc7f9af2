package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	Connection *sql.DB
}

// NewSQLiteStorage opens the database with immediate transactions, so every
// BeginTx takes the write lock up front instead of on the first write.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	if _, err = conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("can't enable foreign keys: %w", err)
	}

	return &SQLiteStorage{Connection: conn}, nil
}

// Init creates the schema. Moves are unique per (game_id, move_number) and
// match_history per game_id, so a lost race between two writers surfaces as
// a constraint error instead of a forked log or a doubled summary.
func (that *SQLiteStorage) Init(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			player_x_id TEXT NOT NULL REFERENCES users(id),
			player_o_id TEXT REFERENCES users(id),
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			current_turn TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			winner_id TEXT REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			move_number INTEGER NOT NULL,
			player_id TEXT NOT NULL REFERENCES users(id),
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			moved_at TIMESTAMP NOT NULL,
			UNIQUE (game_id, move_number)
		)`,
		`CREATE TABLE IF NOT EXISTS match_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL UNIQUE REFERENCES games(id) ON DELETE CASCADE,
			player_x_id TEXT NOT NULL REFERENCES users(id),
			player_o_id TEXT REFERENCES users(id),
			winner_id TEXT REFERENCES users(id),
			result TEXT NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moves_game ON moves(game_id, move_number)`,
		`CREATE INDEX IF NOT EXISTS idx_history_players ON match_history(player_x_id, player_o_id)`,
	}

	for _, migration := range migrations {
		if _, err := that.Connection.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("can't run migration: %w", err)
		}
	}

	return nil
}

func (that *SQLiteStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
