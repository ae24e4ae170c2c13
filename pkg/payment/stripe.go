package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/juju/errors"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

const ErrInvalidWebhook = errors.ConstError("invalid webhook payload")

// StripeGateway implements Gateway with the Stripe API
type StripeGateway struct {
	webhookSecret string
}

// NewStripeGateway sets the global Stripe key and returns the gateway
func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCustomer(_ context.Context, in CustomerInput) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
		Name:  stripe.String(in.Name),
		Metadata: map[string]string{
			"tenant_id": in.TenantID,
			"user_id":   in.UserID,
		},
	}
	c, err := customer.New(params)
	if err != nil {
		return "", upstream(err, "creating customer")
	}
	return c.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(_ context.Context, in CheckoutInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(in.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.GatewayPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		Metadata:   in.Metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: in.Metadata,
		},
	}
	if id := in.Metadata[MetaSubscriptionID]; id != "" {
		params.ClientReferenceID = stripe.String(id)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, upstream(err, "creating checkout session")
	}
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutSession, error) {
	s, err := session.Get(sessionID, &stripe.CheckoutSessionParams{})
	if err != nil {
		return nil, upstream(err, "fetching checkout session")
	}
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetInvoice(_ context.Context, invoiceID string) (*Invoice, error) {
	inv, err := invoice.Get(invoiceID, &stripe.InvoiceParams{})
	if err != nil {
		return nil, upstream(err, "fetching invoice")
	}

	out := &Invoice{
		ID:         inv.ID,
		AmountPaid: inv.AmountPaid,
		AmountDue:  inv.AmountDue,
		Currency:   strings.ToUpper(string(inv.Currency)),
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		out.SubscriptionID = inv.Parent.SubscriptionDetails.Subscription.ID
	}
	// the subscription line carries the period being paid for; the invoice
	// header period refers to the previous one
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line.Period != nil && line.Period.End > 0 {
				out.PeriodEnd = time.Unix(line.Period.End, 0)
				break
			}
		}
	}
	if out.PeriodEnd.IsZero() && inv.PeriodEnd > 0 {
		out.PeriodEnd = time.Unix(inv.PeriodEnd, 0)
	}
	return out, nil
}

func (g *StripeGateway) CancelSubscription(_ context.Context, gatewaySubscriptionID string) error {
	_, err := subscription.Cancel(gatewaySubscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return upstream(err, "canceling subscription")
	}
	return nil
}

func (g *StripeGateway) PauseSubscription(context.Context, string) error {
	return nil
}

func (g *StripeGateway) ResumeSubscription(context.Context, string) error {
	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	if signature == "" {
		return nil, errors.Annotate(ErrInvalidWebhook, "missing signature")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Annotate(ErrInvalidWebhook, err.Error())
	}

	var object struct {
		ID string `json:"id"`
	}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			return nil, errors.Annotate(ErrInvalidWebhook, err.Error())
		}
	}

	return &domain.WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Kind:     domain.ParseWebhookEventKind(string(event.Type)),
		ObjectID: object.ID,
	}, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

func upstream(err error, action string) error {
	msg := err.Error()
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg = stripeErr.Msg
	}
	return errors.Annotatef(domain.ErrUpstream, "stripe: %s: %s", action, msg)
}
