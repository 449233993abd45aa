package api

import (
	"context"
	"net/http"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/auth"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
)

type ctxKey int

const sessionKey ctxKey = iota

// CORS echoes allowed origins and permits credentialed requests from them.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Set("Access-Control-Allow-Credentials", "true")
						w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
						w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
						w.Header().Add("Vary", "Origin")
						break
					}
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a live session cookie
func RequireAuth(svc AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := svc.Check(r.Context(), sessionToken(r))
			if err != nil {
				if apperrors.StatusOf(err) == http.StatusUnauthorized {
					Error(w, http.StatusUnauthorized, "Not authenticated")
					return
				}
				Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session RequireAuth attached to ctx
func SessionFrom(ctx context.Context) (*domain.AuthSession, bool) {
	s, ok := ctx.Value(sessionKey).(*domain.AuthSession)
	return s, ok
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
