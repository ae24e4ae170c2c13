package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const sessionColumns = `id, user_id, tenant_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at`

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (:id, :user_id, :tenant_id, :refresh_token_hash, :user_agent, :ip_address, :expires_at, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return errors.Annotate(err, "creating session")
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.GetContext(ctx, &session,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = $1 AND expires_at > NOW()`, tokenHash)
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// Update rotates the stored refresh token hash and expiry
func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = :refresh_token_hash, expires_at = :expires_at
		WHERE id = :id`, session)
	if err != nil {
		return errors.Annotate(err, "updating session")
	}
	return expectRow(res, "session")
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return errors.Annotate(err, "deleting session")
	}
	return nil
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return errors.Annotate(err, "deleting user sessions")
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, errors.Annotate(err, "deleting expired sessions")
	}
	return res.RowsAffected()
}
