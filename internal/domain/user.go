package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

type User struct {
	ID                          uuid.UUID  `json:"id" db:"id"`
	TenantID                    *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	Name                        string     `json:"name" db:"name"`
	Email                       string     `json:"email" db:"email"`
	PasswordHash                string     `json:"-" db:"password_hash"`
	Role                        Role       `json:"role" db:"role"`
	Status                      UserStatus `json:"status" db:"status"`
	FailedLogins                int        `json:"-" db:"failed_logins"`
	LockedUntil                 *time.Time `json:"-" db:"locked_until"`
	PasswordResetToken          *string    `json:"-" db:"password_reset_token"`
	PasswordResetTokenExpiresAt *time.Time `json:"-" db:"password_reset_token_expires_at"`
	CreatedAt                   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt                 *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// BelongsTo reports whether the user is a member of the given tenant
func (u *User) BelongsTo(tenantID uuid.UUID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

// UserDTO is the public representation of a user
type UserDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     Role       `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

func (u *User) DTO() *UserDTO {
	return &UserDTO{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	}
}
