package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelgrid/tictactoe-backend/internal/apperror"
)

type AuthService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) error

	GenerateToken(username string) (string, error)
	ParseToken(tokenString string) (string, error)
}

type authService struct {
	secretKey string
	tokenTTL  time.Duration
}

func NewAuthService(secretKey string, tokenTTL time.Duration) AuthService {
	return &authService{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
	}
}

func (that *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

func (that *authService) VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperror.ErrUnauthenticated
	}

	return nil
}

func (that *authService) GenerateToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": jwt.NewNumericDate(time.Now().Add(that.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(that.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken validates the token and returns the subject username. Any
// failure collapses into ErrUnauthenticated - the caller never learns why.
func (that *authService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(that.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", apperror.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperror.ErrUnauthenticated
	}

	username, err := claims.GetSubject()
	if err != nil || username == "" {
		return "", apperror.ErrUnauthenticated
	}

	return username, nil
}
