package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultUserID is the identity every shared-password login maps to
const DefaultUserID = "eversmile_user"

// AuthSession represents a logged-in browser or terminal
type AuthSession struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID       string    `gorm:"type:varchar(255);uniqueIndex:idx_auth_sessions_sid;not null" json:"session_id"`
	UserID          string    `gorm:"type:varchar(255);not null" json:"user_id"`
	IsAuthenticated bool      `gorm:"default:true" json:"is_authenticated"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt       time.Time `gorm:"not null;index:idx_auth_sessions_expires" json:"expires_at"`
}

// TableName specifies the table name for GORM
func (AuthSession) TableName() string {
	return "auth_sessions"
}

// BeforeCreate GORM hook
func (s *AuthSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	// Set default expiration to one year if not set
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = time.Now().Add(365 * 24 * time.Hour)
	}
	return nil
}

// IsExpired checks if the session has expired
func (s *AuthSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
