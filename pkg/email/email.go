package email

import (
	"context"
	"time"
)

// EmailService defines the transactional emails the API sends. Callers treat
// every send as best effort.
type EmailService interface {
	// SendPasswordResetEmail sends a password reset link to the user
	SendPasswordResetEmail(ctx context.Context, to, name, token string) error

	// SendWelcomeEmail greets a new subscriber once checkout completes
	SendWelcomeEmail(ctx context.Context, to, name, clubName string) error

	// SendPaymentConfirmationEmail confirms a paid invoice
	SendPaymentConfirmationEmail(ctx context.Context, to string, p PaymentConfirmation) error

	// SendShipmentEmail tells a subscriber that this month's box left
	SendShipmentEmail(ctx context.Context, to string, s Shipment) error
}

type PaymentConfirmation struct {
	Name            string
	ClubName        string
	Amount          int64
	Currency        string
	NextBillingDate time.Time
}

type Shipment struct {
	Name         string
	ClubName     string
	Month        int
	Year         int
	TrackingCode string
	TrackingURL  string
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// ResetURL is the frontend page that consumes the reset token
	ResetURL string
}
