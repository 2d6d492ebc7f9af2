package rest

import "time"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type startGameRequest struct {
	OpponentUsername string `json:"opponent_username,omitempty"`
	GameMode         string `json:"game_mode,omitempty"`
}

type startGameResponse struct {
	GameID      string `json:"game_id"`
	Status      string `json:"status"`
	CurrentTurn string `json:"current_turn"`
	GameMode    string `json:"game_mode"`
}

type moveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type moveResponse struct {
	Board  [3][3]string `json:"board"`
	Status string       `json:"status"`
	Winner string       `json:"winner,omitempty"`
	IsDraw bool         `json:"is_draw"`
}

type moveEntry struct {
	MoveNumber int       `json:"move_number"`
	Player     string    `json:"player"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Symbol     string    `json:"symbol"`
	MovedAt    time.Time `json:"moved_at"`
}

type gameStateResponse struct {
	GameID      string       `json:"game_id"`
	Board       [3][3]string `json:"board"`
	CurrentTurn string       `json:"current_turn"`
	Status      string       `json:"status"`
	Moves       []moveEntry  `json:"moves"`
	PlayerX     string       `json:"player_x"`
	PlayerO     string       `json:"player_o,omitempty"`
	Winner      string       `json:"winner,omitempty"`
	IsDraw      bool         `json:"is_draw"`
}

type historyEntry struct {
	GameID     string    `json:"game_id"`
	PlayerX    string    `json:"player_x"`
	PlayerO    string    `json:"player_o,omitempty"`
	Result     string    `json:"result"`
	Winner     string    `json:"winner,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

type historyResponse struct {
	Games []historyEntry `json:"games"`
}

type errorResponse struct {
	Error string `json:"error"`
}
