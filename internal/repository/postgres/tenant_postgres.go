package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const tenantColumns = `id, name, slug, business_type, status, owner_id, settings,
	currency, country, timezone, trial_ends_at, deleted_at, created_at, updated_at`

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

// Provision inserts the tenant, then its owner, then backfills owner_id
func (r *tenantRepository) Provision(ctx context.Context, tenant *domain.Tenant, owner *domain.User) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO tenants (`+tenantColumns+`)
			VALUES (:id, :name, :slug, :business_type, :status, NULL, :settings,
				:currency, :country, :timezone, :trial_ends_at, NULL, :created_at, :updated_at)`, tenant)
		if err != nil {
			if _, ok := isUniqueViolation(err); ok {
				return errors.AlreadyExistsf("tenant slug %q", tenant.Slug)
			}
			return errors.Annotate(err, "creating tenant")
		}

		owner.TenantID = &tenant.ID
		if err := insertUser(ctx, tx, owner); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE tenants SET owner_id = $1 WHERE id = $2`, owner.ID, tenant.ID)
		if err != nil {
			return errors.Annotate(err, "setting tenant owner")
		}
		tenant.OwnerID = &owner.ID
		return nil
	})
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.GetContext(ctx, &tenant, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return &tenant, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.GetContext(ctx, &tenant, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return &tenant, nil
}

func (r *tenantRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.TenantSettings) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET settings = $1, updated_at = NOW() WHERE id = $2`, settings, id)
	if err != nil {
		return errors.Annotate(err, "updating tenant settings")
	}
	return expectRow(res, "tenant")
}

func (r *tenantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus, deletedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = $1, deleted_at = $2, updated_at = NOW() WHERE id = $3`,
		status, deletedAt, id)
	if err != nil {
		return errors.Annotate(err, "updating tenant status")
	}
	return expectRow(res, "tenant")
}

// List returns tenants with owner email and counts. An empty status lists
// every tenant that is not deleted.
func (r *tenantRepository) List(ctx context.Context, status domain.TenantStatus, limit, offset int) ([]*domain.TenantSummary, int, error) {
	whereSQL := "t.status <> 'DELETED'"
	args := []interface{}{}
	if status != "" {
		whereSQL = "t.status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tenants t WHERE `+whereSQL, args...); err != nil {
		return nil, 0, errors.Annotate(err, "counting tenants")
	}

	query := `
		SELECT t.id, t.name, t.slug, t.business_type, t.status, t.owner_id, t.settings,
			t.currency, t.country, t.timezone, t.trial_ends_at, t.deleted_at, t.created_at, t.updated_at,
			o.email AS owner_email,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.tenant_id = t.id AND s.status = 'ACTIVE') AS active_subscriptions,
			(SELECT COUNT(*) FROM users u WHERE u.tenant_id = t.id) AS total_users
		FROM tenants t
		LEFT JOIN users o ON o.id = t.owner_id
		WHERE ` + whereSQL + `
		ORDER BY t.created_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	var tenants []*domain.TenantSummary
	if err := r.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, 0, errors.Annotate(err, "listing tenants")
	}
	return tenants, total, nil
}
