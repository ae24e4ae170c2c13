package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type PlanRepository interface {
	// Create inserts the plan and its prices
	Create(ctx context.Context, plan *domain.Plan) error
	// Update writes plan fields and upserts its prices by interval
	Update(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Plan, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*domain.Plan, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*domain.Plan, error)
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
}
