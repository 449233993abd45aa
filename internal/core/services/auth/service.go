package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// Service checks the shared password and manages login sessions
type Service struct {
	config Config
	hash   []byte
	repo   SessionRepository
	logger *slog.Logger
}

// NewService hashes the configured password once so requests never compare
// plaintext
func NewService(config Config, repo SessionRepository, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	if config.Password == "" {
		return nil, errors.New("auth password is required")
	}
	if len(config.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(config.Password), config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	config.Password = ""

	return &Service{
		config: config,
		hash:   hash,
		repo:   repo,
		logger: log,
	}, nil
}

// Login verifies password and opens a session. It returns the signed token
// for the cookie.
func (s *Service) Login(ctx context.Context, password string) (string, *domain.AuthSession, error) {
	if password == "" {
		return "", nil, apperrors.BadRequest("Password is required")
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		s.logger.Warn("login rejected")
		return "", nil, apperrors.InvalidCredentials()
	}

	now := s.config.Now()
	session := &domain.AuthSession{
		SessionID:       uuid.NewString(),
		UserID:          domain.DefaultUserID,
		IsAuthenticated: true,
		ExpiresAt:       now.Add(s.config.TTL),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return "", nil, err
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        session.SessionID,
		Subject:   session.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}).SignedString(s.config.Secret)
	if err != nil {
		return "", nil, apperrors.InternalWrap(err, "failed to sign session token")
	}

	s.logger.Info("login succeeded", slog.String("session_id", session.SessionID))
	return token, session, nil
}

// Check resolves a token to a live session
func (s *Service) Check(ctx context.Context, token string) (*domain.AuthSession, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Not authenticated")
	}

	claims, err := s.parse(token, jwt.WithTimeFunc(s.config.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.SessionExpired()
		}
		return nil, apperrors.Unauthorized("Not authenticated")
	}

	session, err := s.repo.FindBySessionID(ctx, claims.ID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeRecordNotFound) {
			return nil, apperrors.Unauthorized("Not authenticated")
		}
		return nil, err
	}

	if session.IsExpired(s.config.Now()) {
		if err := s.repo.DeleteBySessionID(ctx, session.SessionID); err != nil {
			s.logger.Warn("failed to delete expired session", logger.Err(err))
		}
		return nil, apperrors.SessionExpired()
	}
	return session, nil
}

// Status reports whether token belongs to a live session. Lookup failures
// read as logged out.
func (s *Service) Status(ctx context.Context, token string) Status {
	session, err := s.Check(ctx, token)
	if err != nil {
		return Status{}
	}
	return Status{IsAuthenticated: session.IsAuthenticated, User: session.UserID}
}

// Logout ends the session behind token. Unknown or malformed tokens are
// ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	if err := s.repo.DeleteBySessionID(ctx, claims.ID); err != nil {
		return err
	}

	s.logger.Info("logout", slog.String("session_id", claims.ID))
	return nil
}

// PurgeExpired drops sessions past their expiry
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.config.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", slog.Int64("count", n))
	}
	return n, nil
}

// TTL is how long a new session lives
func (s *Service) TTL() time.Duration {
	return s.config.TTL
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session id")
	}
	return claims, nil
}
