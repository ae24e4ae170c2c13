package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const (
	planColumns  = `id, tenant_id, slug, name, description, features, highlighted, active, sort_order, created_at, updated_at`
	priceColumns = `id, plan_id, amount, currency, billing_interval, active, gateway_price_id, created_at`
)

type planRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *domain.Plan) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO plans (`+planColumns+`)
			VALUES (:id, :tenant_id, :slug, :name, :description, :features, :highlighted, :active,
				:sort_order, :created_at, :updated_at)`, plan)
		if err != nil {
			if _, ok := isUniqueViolation(err); ok {
				return errors.AlreadyExistsf("plan slug %q", plan.Slug)
			}
			return errors.Annotate(err, "creating plan")
		}
		return upsertPrices(ctx, tx, plan)
	})
}

func (r *planRepository) Update(ctx context.Context, plan *domain.Plan) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE plans SET
				name = :name,
				description = :description,
				features = :features,
				highlighted = :highlighted,
				active = :active,
				sort_order = :sort_order,
				updated_at = :updated_at
			WHERE id = :id AND tenant_id = :tenant_id`, plan)
		if err != nil {
			return errors.Annotate(err, "updating plan")
		}
		if err := expectRow(res, "plan"); err != nil {
			return err
		}
		return upsertPrices(ctx, tx, plan)
	})
}

// upsertPrices writes one price row per interval of plan.Prices
func upsertPrices(ctx context.Context, tx *sqlx.Tx, plan *domain.Plan) error {
	for i := range plan.Prices {
		price := &plan.Prices[i]
		price.PlanID = plan.ID
		err := tx.GetContext(ctx, &price.ID, `
			INSERT INTO prices (`+priceColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (plan_id, billing_interval) DO UPDATE SET
				amount = EXCLUDED.amount,
				currency = EXCLUDED.currency,
				active = EXCLUDED.active,
				gateway_price_id = EXCLUDED.gateway_price_id
			RETURNING id`,
			price.ID, price.PlanID, price.Amount, price.Currency, price.Interval,
			price.Active, price.GatewayPriceID, price.CreatedAt)
		if err != nil {
			return errors.Annotatef(err, "saving %s price", price.Interval)
		}
	}
	return nil
}

func (r *planRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.GetContext(ctx, &plan,
		`SELECT `+planColumns+` FROM plans WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	if err := r.loadPrices(ctx, []*domain.Plan{&plan}); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.GetContext(ctx, &plan,
		`SELECT `+planColumns+` FROM plans WHERE slug = $1 AND tenant_id = $2`, slug, tenantID)
	if err != nil {
		return nil, notFound(err, "plan")
	}
	if err := r.loadPrices(ctx, []*domain.Plan{&plan}); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE tenant_id = $1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY sort_order, created_at`

	var plans []*domain.Plan
	if err := r.db.SelectContext(ctx, &plans, query, tenantID); err != nil {
		return nil, errors.Annotate(err, "listing plans")
	}
	if err := r.loadPrices(ctx, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *planRepository) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE plans SET active = FALSE, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return errors.Annotate(err, "deactivating plan")
	}
	return expectRow(res, "plan")
}

func (r *planRepository) loadPrices(ctx context.Context, plans []*domain.Plan) error {
	if len(plans) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(plans))
	byID := make(map[uuid.UUID]*domain.Plan, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Prices = []domain.Price{}
	}

	query, args, err := sqlx.In(`SELECT `+priceColumns+` FROM prices WHERE plan_id IN (?) ORDER BY billing_interval`, ids)
	if err != nil {
		return errors.Annotate(err, "building price query")
	}

	var prices []domain.Price
	if err := r.db.SelectContext(ctx, &prices, r.db.Rebind(query), args...); err != nil {
		return errors.Annotate(err, "loading prices")
	}
	for _, price := range prices {
		if p, ok := byID[price.PlanID]; ok {
			p.Prices = append(p.Prices, price)
		}
	}
	return nil
}
