package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SubscriptionCounts(ctx context.Context, tenantID uuid.UUID, since time.Time) (*domain.SubscriptionCounts, error) {
	var counts domain.SubscriptionCounts
	err := r.db.GetContext(ctx, &counts, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'ACTIVE')   AS active,
			COUNT(*) FILTER (WHERE status = 'PAUSED')   AS paused,
			COUNT(*) FILTER (WHERE status = 'PAST_DUE') AS past_due,
			COUNT(*) FILTER (WHERE status = 'PENDING')  AS pending,
			COUNT(*) FILTER (WHERE status = 'CANCELED' AND canceled_at >= $2) AS canceled_30d
		FROM subscriptions
		WHERE tenant_id = $1`, tenantID, since)
	if err != nil {
		return nil, errors.Annotate(err, "counting subscriptions")
	}
	return &counts, nil
}

// ActiveRevenue sums the price of every active subscription grouped by
// billing interval
func (r *reportRepository) ActiveRevenue(ctx context.Context, tenantID uuid.UUID) ([]domain.ActiveRevenue, error) {
	var rows []domain.ActiveRevenue
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.billing_interval, COALESCE(SUM(pr.amount), 0) AS amount, COUNT(*) AS subscriptions
		FROM subscriptions s
		JOIN prices pr ON pr.plan_id = s.plan_id AND pr.billing_interval = s.billing_interval
		WHERE s.tenant_id = $1 AND s.status = 'ACTIVE'
		GROUP BY s.billing_interval`, tenantID)
	if err != nil {
		return nil, errors.Annotate(err, "summing active revenue")
	}
	return rows, nil
}

func (r *reportRepository) PaidRevenue(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE tenant_id = $1 AND status = 'PAID' AND created_at >= $2`, tenantID, since)
	if err != nil {
		return 0, errors.Annotate(err, "summing paid revenue")
	}
	return total, nil
}

func (r *reportRepository) CountCustomers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(DISTINCT user_id) FROM subscriptions WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, errors.Annotate(err, "counting customers")
	}
	return n, nil
}

func (r *reportRepository) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	var stats domain.PlatformStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM tenants WHERE status <> 'DELETED')   AS total_tenants,
			(SELECT COUNT(*) FROM tenants WHERE status = 'ACTIVE')     AS active_tenants,
			(SELECT COUNT(*) FROM tenants WHERE status = 'TRIAL')      AS trial_tenants,
			(SELECT COUNT(*) FROM tenants WHERE status = 'SUSPENDED')  AS suspended_tenants,
			(SELECT COUNT(*) FROM users)                               AS total_users,
			(SELECT COUNT(*) FROM subscriptions WHERE status = 'ACTIVE') AS active_subscriptions`)
	if err != nil {
		return nil, errors.Annotate(err, "reading platform stats")
	}
	return &stats, nil
}
