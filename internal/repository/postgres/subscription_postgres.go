package postgres

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"
	"github.com/lib/pq"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const subscriptionColumns = `id, tenant_id, user_id, plan_id, billing_interval, status,
	gateway_customer_id, gateway_subscription_id, current_period_start, current_period_end,
	canceled_at, created_at, updated_at`

// detailsSelect joins a subscription with its plan, subscriber and the price
// of its billing interval
const detailsSelect = `
	SELECT s.id, s.tenant_id, s.user_id, s.plan_id, s.billing_interval, s.status,
		s.gateway_customer_id, s.gateway_subscription_id, s.current_period_start, s.current_period_end,
		s.canceled_at, s.created_at, s.updated_at,
		p.slug AS plan_slug, p.name AS plan_name,
		u.name AS user_name, u.email AS user_email,
		COALESCE(pr.amount, 0) AS amount, COALESCE(pr.currency, 'BRL') AS currency
	FROM subscriptions s
	JOIN plans p ON p.id = s.plan_id
	JOIN users u ON u.id = s.user_id
	LEFT JOIN prices pr ON pr.plan_id = s.plan_id AND pr.billing_interval = s.billing_interval`

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (:id, :tenant_id, :user_id, :plan_id, :billing_interval, :status,
			:gateway_customer_id, :gateway_subscription_id, :current_period_start, :current_period_end,
			:canceled_at, :created_at, :updated_at)`, sub)
	if err != nil {
		return subscriptionWriteError(err)
	}
	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE subscriptions SET
			billing_interval = :billing_interval,
			status = :status,
			gateway_customer_id = :gateway_customer_id,
			gateway_subscription_id = :gateway_subscription_id,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			canceled_at = :canceled_at,
			updated_at = :updated_at
		WHERE id = :id`, sub)
	if err != nil {
		return subscriptionWriteError(err)
	}
	return expectRow(res, "subscription")
}

func subscriptionWriteError(err error) error {
	if constraint, ok := isUniqueViolation(err); ok {
		if constraint == "idx_subscriptions_one_active" {
			return errors.AlreadyExistsf("active subscription")
		}
		return errors.AlreadyExistsf("subscription")
	}
	return errors.Annotate(err, "saving subscription")
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByGatewayID(ctx context.Context, gatewaySubscriptionID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE gateway_subscription_id = $1`, gatewaySubscriptionID)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByUserAndPlan(ctx context.Context, userID, planID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND plan_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, userID, planID)
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByUser(ctx context.Context, tenantID, userID uuid.UUID, statuses ...domain.SubscriptionStatus) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE tenant_id = $1 AND user_id = $2`
	args := []interface{}{tenantID, userID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($3)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	var sub domain.Subscription
	if err := r.db.GetContext(ctx, &sub, query, args...); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1 AND status = 'ACTIVE')`, userID)
	if err != nil {
		return false, errors.Annotate(err, "checking active subscription")
	}
	return exists, nil
}

func (r *subscriptionRepository) GetDetails(ctx context.Context, id uuid.UUID) (*domain.SubscriptionDetails, error) {
	var details domain.SubscriptionDetails
	if err := r.db.GetContext(ctx, &details, detailsSelect+` WHERE s.id = $1`, id); err != nil {
		return nil, notFound(err, "subscription")
	}
	return &details, nil
}

func (r *subscriptionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, filter repository.SubscriptionFilter) ([]*domain.SubscriptionDetails, int, error) {
	where := ` WHERE s.tenant_id = $1`
	args := []interface{}{tenantID}
	if filter.Status != "" {
		where += ` AND s.status = $2`
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subscriptions s`+where, args...); err != nil {
		return nil, 0, errors.Annotate(err, "counting subscriptions")
	}

	query := detailsSelect + where + ` ORDER BY s.created_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var subs []*domain.SubscriptionDetails
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, errors.Annotate(err, "listing subscriptions")
	}
	return subs, total, nil
}
