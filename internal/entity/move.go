package entity

import "time"

// Move is an immutable record of one ply. Replaying a game's moves in
// MoveNumber order reconstructs the board; the board itself is never stored.
type Move struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	MoveNumber int       `json:"move_number"`
	PlayerID   string    `json:"player_id"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Symbol     string    `json:"symbol"`
	MovedAt    time.Time `json:"moved_at"`
}
