package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	deliveryService     *service.DeliveryService
	validator           *validator.Validator
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, deliveryService *service.DeliveryService, validator *validator.Validator) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		deliveryService:     deliveryService,
		validator:           validator,
	}
}

// CreateCheckoutSession opens a hosted checkout for a plan
// POST /api/v1/subscriptions/checkout-session
func (h *SubscriptionHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	result, err := h.subscriptionService.StartCheckout(c.Context(), middleware.Tenant(c), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(result)
}

// Me returns the caller's latest subscription or null
// GET /api/v1/subscriptions/me
func (h *SubscriptionHandler) Me(c *fiber.Ctx) error {
	sub, err := h.subscriptionService.Me(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if sub == nil {
		return c.JSON(nil)
	}
	return c.JSON(sub)
}

// Cancel cancels the caller's subscription at the gateway
// DELETE /api/v1/subscriptions/cancel
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	sub, err := h.subscriptionService.Cancel(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Subscription canceled successfully",
		"subscription": sub,
	})
}

// Pause pauses the caller's active subscription
// POST /api/v1/subscriptions/pause
func (h *SubscriptionHandler) Pause(c *fiber.Ctx) error {
	sub, err := h.subscriptionService.Pause(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

// Resume reactivates the caller's paused subscription
// POST /api/v1/subscriptions/resume
func (h *SubscriptionHandler) Resume(c *fiber.Ctx) error {
	sub, err := h.subscriptionService.Resume(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

// MyPayments lists the caller's payments
// GET /api/v1/subscriptions/me/payments
func (h *SubscriptionHandler) MyPayments(c *fiber.Ctx) error {
	payments, err := h.subscriptionService.MyPayments(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"payments": payments,
	})
}

// MyDeliveries lists the caller's deliveries
// GET /api/v1/subscriptions/me/deliveries
func (h *SubscriptionHandler) MyDeliveries(c *fiber.Ctx) error {
	deliveries, err := h.deliveryService.ListMine(c.Context(), middleware.Tenant(c), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"deliveries": deliveries,
	})
}

// ListSubscribers lists the club subscriptions
// GET /api/v1/admin/subscribers?status=ACTIVE&page=1&limit=20
func (h *SubscriptionHandler) ListSubscribers(c *fiber.Ctx) error {
	limit, page, offset := pagination(c)

	subs, total, err := h.subscriptionService.ListSubscribers(c.Context(), middleware.Tenant(c), repository.SubscriptionFilter{
		Status: domain.SubscriptionStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"subscribers": subs,
		"pagination":  paginationMap(total, page, limit),
	})
}

// ListPayments lists the club payments, newest first
// GET /api/v1/admin/payments?page=1&limit=20
func (h *SubscriptionHandler) ListPayments(c *fiber.Ctx) error {
	limit, page, offset := pagination(c)

	payments, total, err := h.subscriptionService.ListPayments(c.Context(), middleware.Tenant(c), limit, offset)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"payments":   payments,
		"pagination": paginationMap(total, page, limit),
	})
}
