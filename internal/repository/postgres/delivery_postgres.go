package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const deliveryColumns = `id, tenant_id, subscription_id, reference_month, reference_year, status,
	tracking_code, tracking_url, notes, shipped_at, delivered_at, created_at, updated_at`

type deliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) repository.DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Get(ctx context.Context, subscriptionID uuid.UUID, month, year int) (*domain.Delivery, error) {
	var d domain.Delivery
	err := r.db.GetContext(ctx, &d, `
		SELECT `+deliveryColumns+` FROM deliveries
		WHERE subscription_id = $1 AND reference_month = $2 AND reference_year = $3`,
		subscriptionID, month, year)
	if err != nil {
		return nil, notFound(err, "delivery")
	}
	return &d, nil
}

func (r *deliveryRepository) Upsert(ctx context.Context, d *domain.Delivery) error {
	query, args, err := r.db.BindNamed(`
		INSERT INTO deliveries (`+deliveryColumns+`)
		VALUES (:id, :tenant_id, :subscription_id, :reference_month, :reference_year, :status,
			:tracking_code, :tracking_url, :notes, :shipped_at, :delivered_at, :created_at, :updated_at)
		ON CONFLICT (subscription_id, reference_month, reference_year) DO UPDATE SET
			status = EXCLUDED.status,
			tracking_code = EXCLUDED.tracking_code,
			tracking_url = EXCLUDED.tracking_url,
			notes = EXCLUDED.notes,
			shipped_at = EXCLUDED.shipped_at,
			delivered_at = EXCLUDED.delivered_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`, d)
	if err != nil {
		return errors.Annotate(err, "binding delivery")
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&d.ID, &d.CreatedAt); err != nil {
		return errors.Annotate(err, "saving delivery")
	}
	return nil
}

func (r *deliveryRepository) ListForPeriod(ctx context.Context, tenantID uuid.UUID, month, year int) ([]*domain.DeliveryRow, error) {
	var rows []*domain.DeliveryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.id AS subscription_id,
			u.name AS user_name, u.email AS user_email, cp.phone,
			p.name AS plan_name,
			a.street, a.number, a.complement, a.district, a.city, a.state, a.zip_code,
			d.id AS delivery_id, d.status, d.tracking_code, d.tracking_url, d.notes,
			d.shipped_at, d.delivered_at
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		JOIN plans p ON p.id = s.plan_id
		LEFT JOIN customer_profiles cp ON cp.user_id = s.user_id
		LEFT JOIN addresses a ON a.id = cp.address_id
		LEFT JOIN deliveries d ON d.subscription_id = s.id
			AND d.reference_month = $2 AND d.reference_year = $3
		WHERE s.tenant_id = $1 AND s.status = 'ACTIVE'
		ORDER BY u.name`, tenantID, month, year)
	if err != nil {
		return nil, errors.Annotate(err, "listing deliveries")
	}
	return rows, nil
}

func (r *deliveryRepository) ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.Delivery, error) {
	var deliveries []*domain.Delivery
	err := r.db.SelectContext(ctx, &deliveries, `
		SELECT d.id, d.tenant_id, d.subscription_id, d.reference_month, d.reference_year, d.status,
			d.tracking_code, d.tracking_url, d.notes, d.shipped_at, d.delivered_at, d.created_at, d.updated_at
		FROM deliveries d
		JOIN subscriptions s ON s.id = d.subscription_id
		WHERE d.tenant_id = $1 AND s.user_id = $2
		ORDER BY d.reference_year DESC, d.reference_month DESC`, tenantID, userID)
	if err != nil {
		return nil, errors.Annotate(err, "listing user deliveries")
	}
	return deliveries, nil
}
