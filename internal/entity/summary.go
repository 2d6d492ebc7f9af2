package entity

import "time"

// MatchSummary is written exactly once per game, at the moment its status
// first becomes terminal. WinnerID stays empty for draws and abandonments.
type MatchSummary struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	PlayerXID  string    `json:"player_x_id"`
	PlayerOID  string    `json:"player_o_id,omitempty"`
	WinnerID   string    `json:"winner_id,omitempty"`
	Result     string    `json:"result"`
	FinishedAt time.Time `json:"finished_at"`
}
