package repository

import (
	"context"
)

type WebhookEventRepository interface {
	// Record stores the event id. It returns false when the event was already
	// processed or is being processed; events that failed may be recorded again.
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, procErr error) error
}
