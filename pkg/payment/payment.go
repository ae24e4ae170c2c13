package payment

import (
	"context"
	"time"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

// Metadata keys written on checkout sessions. They are the only link between
// a gateway session and the local subscription row.
const (
	MetaSubscriptionID = "subscriptionId"
	MetaTenantID       = "tenantId"
	MetaTenantSlug     = "tenantSlug"
)

// Gateway is the payment provider as the subscription lifecycle sees it
type Gateway interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	CancelSubscription(ctx context.Context, gatewaySubscriptionID string) error
	// PauseSubscription and ResumeSubscription do not call the provider. The
	// local subscription status is the source of truth for pauses.
	PauseSubscription(ctx context.Context, gatewaySubscriptionID string) error
	ResumeSubscription(ctx context.Context, gatewaySubscriptionID string) error
	// ParseWebhook verifies the signature header and decodes the event
	ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error)
}

type CustomerInput struct {
	Email    string
	Name     string
	TenantID string
	UserID   string
}

type CheckoutInput struct {
	CustomerID     string
	GatewayPriceID string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
}

type CheckoutSession struct {
	ID             string
	URL            string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
}

type Invoice struct {
	ID             string
	SubscriptionID string
	AmountPaid     int64
	AmountDue      int64
	Currency       string
	PeriodEnd      time.Time
}
