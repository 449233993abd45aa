package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// CookieName is the browser cookie carrying the signed session token
const CookieName = "eversmile-session"

// SessionRepository stores login sessions. FindBySessionID returns a
// RECORD_NOT_FOUND AppError when the session does not exist.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.AuthSession) error
	FindBySessionID(ctx context.Context, sessionID string) (*domain.AuthSession, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Config for the auth service
type Config struct {
	Password   string
	Secret     []byte
	TTL        time.Duration
	BcryptCost int
	Now        func() time.Time
}

// DefaultConfig returns default auth configuration; Password and Secret
// must still be set
func DefaultConfig() Config {
	return Config{
		TTL:        365 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
		Now:        time.Now,
	}
}

// Status is what GET /api/auth reports
type Status struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            string `json:"user,omitempty"`
}
