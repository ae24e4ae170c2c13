package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const userColumns = `id, tenant_id, name, email, password_hash, role, status,
	failed_logins, locked_until, password_reset_token, password_reset_token_expires_at,
	created_at, updated_at, last_login_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// insertUser is shared with tenant provisioning
func insertUser(ctx context.Context, ext sqlx.ExtContext, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (
			:id, :tenant_id, :name, :email, :password_hash, :role, :status,
			:failed_logins, :locked_until, :password_reset_token, :password_reset_token_expires_at,
			:created_at, :updated_at, :last_login_at
		)`

	_, err := sqlx.NamedExecContext(ctx, ext, query, user)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return errors.AlreadyExistsf("email %q", user.Email)
		}
		return errors.Annotate(err, "creating user")
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.db, user)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// GetByEmail matches case-insensitively; emails are unique system-wide
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `
		SELECT `+userColumns+` FROM users
		WHERE password_reset_token = $1 AND password_reset_token_expires_at > NOW()`, tokenHash)
	if err != nil {
		return nil, notFound(err, "password reset token")
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET
			name = :name,
			email = :email,
			password_hash = :password_hash,
			role = :role,
			status = :status,
			failed_logins = :failed_logins,
			locked_until = :locked_until,
			password_reset_token = :password_reset_token,
			password_reset_token_expires_at = :password_reset_token_expires_at,
			updated_at = :updated_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return errors.AlreadyExistsf("email %q", user.Email)
		}
		return errors.Annotate(err, "updating user")
	}
	return expectRow(res, "user")
}

// Delete removes the user. The owned address is read before the cascade
// drops the profile that references it, then swept.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var addressIDs []uuid.UUID
		err := tx.SelectContext(ctx, &addressIDs,
			`SELECT address_id FROM customer_profiles WHERE user_id = $1 AND address_id IS NOT NULL`, id)
		if err != nil {
			return errors.Annotate(err, "reading user address")
		}

		// tenants owned by the user keep existing without an owner
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return errors.Annotate(err, "deleting user")
		}
		if err := expectRow(res, "user"); err != nil {
			return err
		}

		for _, addressID := range addressIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, addressID); err != nil {
				return errors.Annotate(err, "sweeping address")
			}
		}
		return nil
	})
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "updating last login")
	}
	return nil
}

func (r *userRepository) IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`UPDATE users SET failed_logins = failed_logins + 1 WHERE id = $1 RETURNING failed_logins`, id)
	if err != nil {
		return 0, notFound(err, "user")
	}
	return count, nil
}

func (r *userRepository) ResetFailedLogins(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_logins = 0, locked_until = NULL WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "resetting failed logins")
	}
	return nil
}
