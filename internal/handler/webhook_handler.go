package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/service"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// Stripe receives gateway events. Once the signature checks out the event is
// acknowledged even if handling it fails; failures are logged and the event
// is retried on redelivery.
// POST /api/v1/stripe/webhook
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	event, err := h.webhookService.Verify(c.Body(), c.Get(StripeSignatureHeader))
	if err != nil {
		return writeError(c, err)
	}

	h.webhookService.Process(c.Context(), event)

	return c.JSON(fiber.Map{
		"received": true,
	})
}
