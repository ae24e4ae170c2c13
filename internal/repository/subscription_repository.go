package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type SubscriptionFilter struct {
	Status domain.SubscriptionStatus
	Limit  int
	Offset int
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	Update(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	GetByGatewayID(ctx context.Context, gatewaySubscriptionID string) (*domain.Subscription, error)
	// GetByUserAndPlan returns the most recent row for the pair
	GetByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (*domain.Subscription, error)
	// GetLatestByUser returns the user's most recent subscription in the tenant
	// whose status is one of statuses, or of any status when none are given
	GetLatestByUser(ctx context.Context, tenantID, userID uuid.UUID, statuses ...domain.SubscriptionStatus) (*domain.Subscription, error)
	HasActive(ctx context.Context, userID uuid.UUID) (bool, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*domain.SubscriptionDetails, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, filter SubscriptionFilter) ([]*domain.SubscriptionDetails, int, error)
}
