package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

type webhookEventRepository struct {
	db *sqlx.DB
}

func NewWebhookEventRepository(db *sqlx.DB) repository.WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// Record claims the event. A row that previously failed is reset and claimed
// again; any other existing row means the event is a duplicate.
func (r *webhookEventRepository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO webhook_events (id, event_id, event_type, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (event_id) DO UPDATE SET error = NULL, processed_at = NULL
			WHERE webhook_events.error IS NOT NULL
		RETURNING id`, uuid.New(), eventID, eventType)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Annotate(err, "recording webhook event")
	}
	return true, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string, procErr error) error {
	var msg *string
	if procErr != nil {
		s := procErr.Error()
		msg = &s
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE webhook_events SET processed_at = NOW(), error = $2 WHERE event_id = $1`, eventID, msg)
	if err != nil {
		return errors.Annotate(err, "marking webhook event")
	}
	return nil
}
