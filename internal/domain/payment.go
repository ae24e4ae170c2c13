package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "PAID"
	PaymentFailed PaymentStatus = "FAILED"
)

// Payment records one billing attempt. Rows are only ever inserted.
type Payment struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	TenantID         uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	SubscriptionID   uuid.UUID     `json:"subscription_id" db:"subscription_id"`
	Amount           int64         `json:"amount" db:"amount"`
	Currency         string        `json:"currency" db:"currency"`
	Status           PaymentStatus `json:"status" db:"status"`
	GatewayInvoiceID string        `json:"gateway_invoice_id" db:"gateway_invoice_id"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// PaymentDetails is a payment joined with the paying user
type PaymentDetails struct {
	Payment
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
	PlanName  string `json:"plan_name" db:"plan_name"`
}
