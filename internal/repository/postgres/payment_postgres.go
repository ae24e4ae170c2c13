package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const paymentColumns = `id, tenant_id, subscription_id, amount, currency, status, gateway_invoice_id, created_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :tenant_id, :subscription_id, :amount, :currency, :status, :gateway_invoice_id, :created_at)`,
		payment)
	if err != nil {
		return errors.Annotate(err, "creating payment")
	}
	return nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT p.id, p.tenant_id, p.subscription_id, p.amount, p.currency, p.status, p.gateway_invoice_id, p.created_at
		FROM payments p
		JOIN subscriptions s ON s.id = p.subscription_id
		WHERE p.tenant_id = $1 AND s.user_id = $2
		ORDER BY p.created_at DESC`, tenantID, userID)
	if err != nil {
		return nil, errors.Annotate(err, "listing user payments")
	}
	return payments, nil
}

func (r *paymentRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.PaymentDetails, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments WHERE tenant_id = $1`, tenantID); err != nil {
		return nil, 0, errors.Annotate(err, "counting payments")
	}

	var payments []*domain.PaymentDetails
	err := r.db.SelectContext(ctx, &payments, `
		SELECT p.id, p.tenant_id, p.subscription_id, p.amount, p.currency, p.status, p.gateway_invoice_id, p.created_at,
			u.name AS user_name, u.email AS user_email, pl.name AS plan_name
		FROM payments p
		JOIN subscriptions s ON s.id = p.subscription_id
		JOIN users u ON u.id = s.user_id
		JOIN plans pl ON pl.id = s.plan_id
		WHERE p.tenant_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, errors.Annotate(err, "listing payments")
	}
	return payments, total, nil
}
