package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// layout wraps body in the shared email shell. title and body are HTML.
func layout(title, body string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f4f4f4;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse;">
        <tr>
            <td align="center" style="padding: 40px 0;">
                <table role="presentation" style="width: 600px; border-collapse: collapse; background-color: #ffffff; border-radius: 8px;">
                    <tr>
                        <td style="padding: 32px 30px; text-align: center; background-color: #1F2937; border-radius: 8px 8px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 26px;">%s</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 32px 30px; font-size: 16px; line-height: 24px; color: #333333;">
                            %s
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 24px; text-align: center; background-color: #f8f8f8; border-radius: 0 0 8px 8px;">
                            <p style="margin: 0; font-size: 12px; color: #999999;">Faz um Clube</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`, title, title, body)
}

func button(href, label string) string {
	return fmt.Sprintf(`<p style="margin: 28px 0; text-align: center;"><a href="%s" style="display: inline-block; padding: 14px 40px; background-color: #F59E0B; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: bold;">%s</a></p>`,
		html.EscapeString(href), html.EscapeString(label))
}

func PasswordResetEmailTemplate(name, resetURL string) string {
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Recebemos um pedido para redefinir a sua senha. Clique no botão abaixo para escolher uma nova senha.</p>
%s
<p style="font-size: 14px; color: #666666;">O link expira em 1 hora. Se você não fez este pedido, ignore este email.</p>`,
		html.EscapeString(name), button(resetURL, "Redefinir senha"))
	return layout("Redefinição de senha", body)
}

func WelcomeEmailTemplate(name, clubName string) string {
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Sua assinatura do <strong>%s</strong> está ativa. Em breve você recebe a sua primeira entrega.</p>`,
		html.EscapeString(name), html.EscapeString(clubName))
	return layout("Bem-vindo ao "+html.EscapeString(clubName), body)
}

func PaymentConfirmationEmailTemplate(p PaymentConfirmation) string {
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Confirmamos o pagamento de <strong>%s</strong> da sua assinatura do %s.</p>
<p>Próxima cobrança: %s</p>`,
		html.EscapeString(p.Name),
		FormatAmount(p.Amount, p.Currency),
		html.EscapeString(p.ClubName),
		p.NextBillingDate.Format("02/01/2006"))
	return layout("Pagamento confirmado", body)
}

func ShipmentEmailTemplate(s Shipment) string {
	var tracking string
	if s.TrackingCode != "" {
		tracking = fmt.Sprintf(`<p>Código de rastreio: <strong>%s</strong></p>`, html.EscapeString(s.TrackingCode))
	}
	if s.TrackingURL != "" {
		tracking += button(s.TrackingURL, "Rastrear pedido")
	}
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>A entrega de %02d/%d do %s foi enviada.</p>
%s`,
		html.EscapeString(s.Name), s.Month, s.Year, html.EscapeString(s.ClubName), tracking)
	return layout("Pedido enviado", body)
}

// FormatAmount renders minor units as a localized amount, e.g. 4990 BRL as "R$ 49,90"
func FormatAmount(amount int64, currency string) string {
	value := decimal.New(amount, -2).StringFixed(2)
	value = strings.Replace(value, ".", ",", 1)
	switch strings.ToUpper(currency) {
	case "BRL", "":
		return "R$ " + value
	default:
		return strings.ToUpper(currency) + " " + value
	}
}
