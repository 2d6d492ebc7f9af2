package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)

	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type userRepo interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) error
}

type userService struct {
	userRepo userRepo
	hasher   passwordHasher
}

func NewUserService(userRepo userRepo, hasher passwordHasher) UserService {
	return &userService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Register creates an account. Usernames and emails are case-insensitive and
// stored lower-cased.
func (that *userService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	passwordHash, err := that.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err = that.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (that *userService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := that.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, apperror.ErrUnauthenticated
	}

	if err = that.hasher.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, apperror.ErrUnauthenticated
	}

	return user, nil
}

func (that *userService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := that.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

func (that *userService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := that.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}
