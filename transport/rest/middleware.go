package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/pixelgrid/tictactoe-backend/internal/entity"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// authMiddleware resolves the bearer token to a user and stores it in the
// request context. Protected routes can assume userFromContext is non-nil.
func (that *Handlers) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		username, err := that.tokens.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		user, err := that.users.GetByUsername(r.Context(), username)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) *entity.User {
	user, _ := ctx.Value(userContextKey).(*entity.User)
	return user
}
