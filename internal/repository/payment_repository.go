package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.Payment, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.PaymentDetails, int, error)
}
