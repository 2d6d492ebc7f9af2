package apperror

import "errors"

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameNotActive = errors.New("game is not active")

	ErrPlayerNotInGame = errors.New("player is not part of this game")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrOutOfBounds     = errors.New("cell is out of bounds")

	ErrInvalidOpponent = errors.New("invalid or unavailable opponent")
	ErrNotAuthorized   = errors.New("not authorized to view this game")
	ErrUnauthenticated = errors.New("could not validate credentials")

	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("username or email already exists")

	// ErrInvalidMoveSequence means the stored move log does not replay into
	// a legal board. Every move was validated before it was written, so
	// hitting this indicates storage corruption or a bypassed write path.
	ErrInvalidMoveSequence = errors.New("stored move sequence is invalid")
)
