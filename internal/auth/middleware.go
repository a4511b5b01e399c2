package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"resale-backend/internal/database"

	"gorm.io/gorm"
)

type userContextKey struct{}

func WithUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

func UserFromContext(ctx context.Context) (*database.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*database.User)
	return user, ok && user != nil
}

// LoadUser resolves the session's user, if any, and stores it in the request
// context. Requests without a valid session pass through anonymously.
func (m *SessionManager) LoadUser(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userId, ok := m.CurrentUserId(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := database.GetUser(r.Context(), db, userId)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					slog.Error("error loading session user", "user_id", userId, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser sends anonymous visitors to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserAPI is RequireUser for JSON endpoints.
func RequireUserAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
