package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type DeliveryRepository interface {
	Get(ctx context.Context, subscriptionID uuid.UUID, month, year int) (*domain.Delivery, error)
	// Upsert writes d keyed by (subscription, month, year). On conflict the
	// existing row takes d's values and keeps its id and created_at.
	Upsert(ctx context.Context, d *domain.Delivery) error
	// ListForPeriod returns every active subscriber of the tenant joined with
	// its delivery for the period, if one exists
	ListForPeriod(ctx context.Context, tenantID uuid.UUID, month, year int) ([]*domain.DeliveryRow, error)
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.Delivery, error)
}
