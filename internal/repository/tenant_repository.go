package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type TenantRepository interface {
	// Provision creates the tenant and its owner in one transaction and
	// backfills tenant.owner_id
	Provision(ctx context.Context, tenant *domain.Tenant, owner *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.TenantSettings) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus, deletedAt *time.Time) error
	List(ctx context.Context, status domain.TenantStatus, limit, offset int) ([]*domain.TenantSummary, int, error)
}
