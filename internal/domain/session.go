package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks an issued refresh token. Only the SHA-256 hash of the token
// is stored.
type Session struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	TenantID         *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	RefreshTokenHash string     `json:"-" db:"refresh_token_hash"`
	UserAgent        string     `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress        string     `json:"ip_address,omitempty" db:"ip_address"`
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
