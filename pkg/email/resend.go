package email

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendEmailService implements EmailService using Resend
type ResendEmailService struct {
	client *resend.Client
	config *EmailConfig
	logger *zap.Logger
}

func NewResendEmailService(config *EmailConfig, logger *zap.Logger) (*ResendEmailService, error) {
	if config.APIKey == "" {
		return nil, errors.NotValidf("empty resend API key")
	}
	if config.FromEmail == "" {
		return nil, errors.NotValidf("empty from email")
	}

	return &ResendEmailService{
		client: resend.NewClient(config.APIKey),
		config: config,
		logger: logger.Named("email"),
	}, nil
}

func (s *ResendEmailService) send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Warn("send failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return errors.Annotatef(err, "sending %q", subject)
	}

	s.logger.Info("sent", zap.String("to", to), zap.String("subject", subject), zap.String("id", sent.Id))
	return nil
}

func (s *ResendEmailService) SendPasswordResetEmail(ctx context.Context, to, name, token string) error {
	resetURL := fmt.Sprintf("%s?token=%s", s.config.ResetURL, token)
	return s.send(ctx, to, "Redefinição de senha", PasswordResetEmailTemplate(name, resetURL))
}

func (s *ResendEmailService) SendWelcomeEmail(ctx context.Context, to, name, clubName string) error {
	return s.send(ctx, to, fmt.Sprintf("Bem-vindo ao %s!", clubName), WelcomeEmailTemplate(name, clubName))
}

func (s *ResendEmailService) SendPaymentConfirmationEmail(ctx context.Context, to string, p PaymentConfirmation) error {
	return s.send(ctx, to, fmt.Sprintf("Pagamento confirmado - %s", p.ClubName), PaymentConfirmationEmailTemplate(p))
}

func (s *ResendEmailService) SendShipmentEmail(ctx context.Context, to string, sh Shipment) error {
	return s.send(ctx, to, fmt.Sprintf("Seu pedido de %s foi enviado", sh.ClubName), ShipmentEmailTemplate(sh))
}
