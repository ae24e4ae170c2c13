package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventKind is the closed set of gateway event types the API reacts to
type WebhookEventKind int

const (
	WebhookIgnored WebhookEventKind = iota
	WebhookCheckoutCompleted
	WebhookPaymentSucceeded
	WebhookPaymentFailed
	WebhookSubscriptionDeleted
)

var webhookEventTypes = map[string]WebhookEventKind{
	"checkout.session.completed":    WebhookCheckoutCompleted,
	"invoice.payment_succeeded":     WebhookPaymentSucceeded,
	"invoice.payment_failed":        WebhookPaymentFailed,
	"customer.subscription.deleted": WebhookSubscriptionDeleted,
}

// ParseWebhookEventKind maps a gateway event type to its kind. Unknown types
// yield WebhookIgnored.
func ParseWebhookEventKind(eventType string) WebhookEventKind {
	if kind, ok := webhookEventTypes[eventType]; ok {
		return kind
	}
	return WebhookIgnored
}

func (k WebhookEventKind) String() string {
	for name, kind := range webhookEventTypes {
		if kind == k {
			return name
		}
	}
	return "ignored"
}

// WebhookEvent is a verified gateway event. ObjectID is the id of the object
// the event refers to (checkout session, invoice or subscription).
type WebhookEvent struct {
	ID       string
	Type     string
	Kind     WebhookEventKind
	ObjectID string
}

// WebhookEventRecord is the stored receipt of a processed event
type WebhookEventRecord struct {
	ID          uuid.UUID  `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProcessedAt *time.Time `db:"processed_at"`
	Error       *string    `db:"error"`
	CreatedAt   time.Time  `db:"created_at"`
}
