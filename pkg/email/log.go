package email

import (
	"context"

	"go.uber.org/zap"
)

// LogEmailService writes emails to the log instead of sending them. It is
// used when EMAIL_ENABLED is false.
type LogEmailService struct {
	logger *zap.Logger
}

func NewLogEmailService(logger *zap.Logger) *LogEmailService {
	return &LogEmailService{logger: logger.Named("email")}
}

func (s *LogEmailService) SendPasswordResetEmail(_ context.Context, to, name, _ string) error {
	s.logger.Info("password reset email suppressed", zap.String("to", to), zap.String("name", name))
	return nil
}

func (s *LogEmailService) SendWelcomeEmail(_ context.Context, to, _, clubName string) error {
	s.logger.Info("welcome email suppressed", zap.String("to", to), zap.String("club", clubName))
	return nil
}

func (s *LogEmailService) SendPaymentConfirmationEmail(_ context.Context, to string, p PaymentConfirmation) error {
	s.logger.Info("payment confirmation email suppressed",
		zap.String("to", to),
		zap.String("club", p.ClubName),
		zap.Int64("amount", p.Amount),
		zap.Time("next_billing", p.NextBillingDate),
	)
	return nil
}

func (s *LogEmailService) SendShipmentEmail(_ context.Context, to string, sh Shipment) error {
	s.logger.Info("shipment email suppressed",
		zap.String("to", to),
		zap.String("club", sh.ClubName),
		zap.String("tracking_code", sh.TrackingCode),
	)
	return nil
}
