package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelgrid/tictactoe-backend/internal/config"
	"github.com/pixelgrid/tictactoe-backend/internal/repository"
	"github.com/pixelgrid/tictactoe-backend/internal/repository/storage"
	"github.com/pixelgrid/tictactoe-backend/internal/service"
	"github.com/pixelgrid/tictactoe-backend/transport/rest"
)

var (
	ErrAddrNotFound    = errors.New("redis address string is empty")
	ErrJWTSecretNotSet = errors.New("jwt secret key is not set")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	if conf.JWTSecretKey == "" {
		return ErrJWTSecretNotSet
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not migrate sqlite storage: %w", err)
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	userRepo := repository.NewUserRepository(sqliteStorage.Connection)
	gameRepo := repository.NewGameRepository(sqliteStorage.Connection)
	boardCache := repository.NewBoardCache(redisStorage.Connection)

	authService := service.NewAuthService(conf.JWTSecretKey, conf.TokenTTL)
	userService := service.NewUserService(userRepo, authService)
	historyService := service.NewHistoryService(gameRepo)
	gamePlayService := service.NewGamePlayService(logger, gameRepo, boardCache, userService, historyService)

	handlers := rest.NewHandlers(logger, userService, authService, gamePlayService, historyService)
	server := rest.New(logger, handlers)

	log.Info("Starting HTTP server", "port", conf.HTTPPort)
	if err = server.Start(ctx, conf.HTTPPort); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}
