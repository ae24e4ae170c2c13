package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type CustomerRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CustomerProfile, error)
	// SaveProfile upserts the profile and, when profile.Address is set, the
	// address it owns
	SaveProfile(ctx context.Context, profile *domain.CustomerProfile) error
}
