package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user; profile, subscriptions and payments cascade and
	// the address owned by the profile is swept in the same transaction
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error)
	ResetFailedLogins(ctx context.Context, id uuid.UUID) error
}
