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
	profileColumns = `id, user_id, phone, birth_date, preferences, address_id, created_at, updated_at`
	addressColumns = `id, street, number, complement, district, city, state, zip_code, created_at, updated_at`
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.CustomerProfile, error) {
	var profile domain.CustomerProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM customer_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, notFound(err, "customer profile")
	}

	if profile.AddressID != nil {
		var addr domain.Address
		err := r.db.GetContext(ctx, &addr, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, *profile.AddressID)
		if err != nil {
			return nil, notFound(err, "address")
		}
		profile.Address = &addr
	}
	return &profile, nil
}

func (r *customerRepository) SaveProfile(ctx context.Context, profile *domain.CustomerProfile) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if profile.Address != nil {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO addresses (`+addressColumns+`)
				VALUES (:id, :street, :number, :complement, :district, :city, :state, :zip_code, :created_at, :updated_at)
				ON CONFLICT (id) DO UPDATE SET
					street = EXCLUDED.street,
					number = EXCLUDED.number,
					complement = EXCLUDED.complement,
					district = EXCLUDED.district,
					city = EXCLUDED.city,
					state = EXCLUDED.state,
					zip_code = EXCLUDED.zip_code,
					updated_at = EXCLUDED.updated_at`, profile.Address)
			if err != nil {
				return errors.Annotate(err, "saving address")
			}
			profile.AddressID = &profile.Address.ID
		}

		query, args, err := tx.BindNamed(`
			INSERT INTO customer_profiles (`+profileColumns+`)
			VALUES (:id, :user_id, :phone, :birth_date, :preferences, :address_id, :created_at, :updated_at)
			ON CONFLICT (user_id) DO UPDATE SET
				phone = EXCLUDED.phone,
				birth_date = EXCLUDED.birth_date,
				preferences = EXCLUDED.preferences,
				address_id = EXCLUDED.address_id,
				updated_at = EXCLUDED.updated_at
			RETURNING id, created_at`, profile)
		if err != nil {
			return errors.Annotate(err, "binding profile")
		}
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&profile.ID, &profile.CreatedAt); err != nil {
			return errors.Annotate(err, "saving profile")
		}
		return nil
	})
}
