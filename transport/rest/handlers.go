package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
	"github.com/pixelgrid/tictactoe-backend/internal/repository"
	"github.com/pixelgrid/tictactoe-backend/internal/service"
)

type userService interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type tokenService interface {
	GenerateToken(username string) (string, error)
	ParseToken(tokenString string) (string, error)
}

type Handlers struct {
	logger *slog.Logger

	users    userService
	tokens   tokenService
	gamePlay service.GamePlayService
	history  service.HistoryService
}

func NewHandlers(logger *slog.Logger, users userService, tokens tokenService, gamePlay service.GamePlayService, history service.HistoryService) *Handlers {
	return &Handlers{
		logger:   logger,
		users:    users,
		tokens:   tokens,
		gamePlay: gamePlay,
		history:  history,
	}
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (that *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "username, email and a password of at least 6 characters are required")
		return
	}

	user, err := that.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

func (that *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := that.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	token, err := that.tokens.GenerateToken(user.Username)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (that *Handlers) StartGame(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := that.gamePlay.StartGame(r.Context(), user, req.OpponentUsername, req.GameMode)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, startGameResponse{
		GameID:      game.ID,
		Status:      game.Status,
		CurrentTurn: game.CurrentTurn,
		GameMode:    game.Mode,
	})
}

func (that *Handlers) MakeMove(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	gameID := chi.URLParam(r, "gameID")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := that.gamePlay.MakeMove(r.Context(), gameID, user, req.Row, req.Col)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, moveResponse{
		Board:  result.Board,
		Status: result.Status,
		Winner: result.Winner,
		IsDraw: result.IsDraw,
	})
}

func (that *Handlers) GetGameState(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	gameID := chi.URLParam(r, "gameID")

	view, err := that.gamePlay.GetGameState(r.Context(), gameID, user)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	resp := gameStateResponse{
		GameID:      view.GameID,
		Board:       view.Board,
		CurrentTurn: view.CurrentTurn,
		Status:      view.Status,
		Moves:       make([]moveEntry, 0, len(view.Moves)),
		PlayerX:     view.PlayerX,
		PlayerO:     view.PlayerO,
		Winner:      view.Winner,
		IsDraw:      view.IsDraw,
	}
	for _, move := range view.Moves {
		resp.Moves = append(resp.Moves, moveEntry{
			MoveNumber: move.MoveNumber,
			Player:     move.Player,
			Row:        move.Row,
			Col:        move.Col,
			Symbol:     move.Symbol,
			MovedAt:    move.MovedAt,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (that *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	summaries, err := that.history.ListHistory(r.Context(), user.ID)
	if err != nil {
		that.respondServiceError(w, err)
		return
	}

	resp := historyResponse{Games: make([]historyEntry, 0, len(summaries))}
	usernames := map[string]string{user.ID: user.Username}

	for _, summary := range summaries {
		entry := historyEntry{
			GameID:     summary.GameID,
			Result:     summary.Result,
			FinishedAt: summary.FinishedAt,
		}

		var err error
		if entry.PlayerX, err = that.resolveUsername(r.Context(), usernames, summary.PlayerXID); err != nil {
			that.respondServiceError(w, err)
			return
		}
		if entry.PlayerO, err = that.resolveUsername(r.Context(), usernames, summary.PlayerOID); err != nil {
			that.respondServiceError(w, err)
			return
		}
		if entry.Winner, err = that.resolveUsername(r.Context(), usernames, summary.WinnerID); err != nil {
			that.respondServiceError(w, err)
			return
		}

		resp.Games = append(resp.Games, entry)
	}

	respondJSON(w, http.StatusOK, resp)
}

func (that *Handlers) resolveUsername(ctx context.Context, cache map[string]string, playerID string) (string, error) {
	if playerID == "" {
		return "", nil
	}

	if username, ok := cache[playerID]; ok {
		return username, nil
	}

	user, err := that.users.GetByID(ctx, playerID)
	if err != nil {
		return "", err
	}

	cache[playerID] = user.Username

	return user.Username, nil
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Invalid
// move sequences are an invariant breach, not a user error: they log loudly
// and surface as a 500.
func (that *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound), errors.Is(err, apperror.ErrUserNotFound):
		respondError(w, http.StatusNotFound, unwrapMessage(err))
	case errors.Is(err, apperror.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, unwrapMessage(err))
	case errors.Is(err, apperror.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, unwrapMessage(err))
	case errors.Is(err, repository.ErrStaleGame):
		respondError(w, http.StatusConflict, unwrapMessage(err))
	case errors.Is(err, apperror.ErrGameNotActive),
		errors.Is(err, apperror.ErrPlayerNotInGame),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrOutOfBounds),
		errors.Is(err, apperror.ErrInvalidOpponent),
		errors.Is(err, apperror.ErrUserAlreadyExists):
		respondError(w, http.StatusBadRequest, unwrapMessage(err))
	default:
		that.logger.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
