package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type ReportRepository interface {
	SubscriptionCounts(ctx context.Context, tenantID uuid.UUID, since time.Time) (*domain.SubscriptionCounts, error)
	ActiveRevenue(ctx context.Context, tenantID uuid.UUID) ([]domain.ActiveRevenue, error)
	PaidRevenue(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)
	CountCustomers(ctx context.Context, tenantID uuid.UUID) (int, error)
	PlatformStats(ctx context.Context) (*domain.PlatformStats, error)
}
