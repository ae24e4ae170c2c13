package handler

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type DeliveryHandler struct {
	deliveryService *service.DeliveryService
	validator       *validator.Validator
	now             func() time.Time
}

func NewDeliveryHandler(deliveryService *service.DeliveryService, validator *validator.Validator) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		validator:       validator,
		now:             time.Now,
	}
}

// period reads month and year from the query, defaulting to the current month
func (h *DeliveryHandler) period(c *fiber.Ctx) (service.DeliveryPeriod, error) {
	var p service.DeliveryPeriod
	if err := c.QueryParser(&p); err != nil {
		return p, requestError("Invalid month or year")
	}
	now := h.now()
	if p.Month == 0 {
		p.Month = int(now.Month())
	}
	if p.Year == 0 {
		p.Year = now.Year()
	}
	return p, nil
}

// ListDeliveries lists active subscribers with the month's delivery
// GET /api/v1/admin/deliveries?month=5&year=2026
func (h *DeliveryHandler) ListDeliveries(c *fiber.Ctx) error {
	period, err := h.period(c)
	if err != nil {
		return writeError(c, err)
	}

	rows, err := h.deliveryService.ListForPeriod(c.Context(), middleware.Tenant(c), period)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"month":      period.Month,
		"year":       period.Year,
		"deliveries": rows,
	})
}

// UpdateDelivery sets the month's delivery of one subscription
// PUT /api/v1/admin/deliveries/:subscriptionId
func (h *DeliveryHandler) UpdateDelivery(c *fiber.Ctx) error {
	subscriptionID, err := uuidParam(c, "subscriptionId")
	if err != nil {
		return writeError(c, err)
	}

	var req service.UpdateDeliveryRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	delivery, err := h.deliveryService.UpdateStatus(c.Context(), middleware.Tenant(c), subscriptionID, req.DeliveryPeriod, req.DeliveryUpdate)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(delivery)
}

// BulkUpdate applies one update to many subscriptions and reports each
// outcome
// POST /api/v1/admin/deliveries/bulk
func (h *DeliveryHandler) BulkUpdate(c *fiber.Ctx) error {
	var req service.BulkDeliveryRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	results := h.deliveryService.BulkUpdate(c.Context(), middleware.Tenant(c), req)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	return c.JSON(fiber.Map{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// Export downloads the month's delivery list as CSV
// GET /api/v1/admin/deliveries/export?month=5&year=2026
func (h *DeliveryHandler) Export(c *fiber.Ctx) error {
	period, err := h.period(c)
	if err != nil {
		return writeError(c, err)
	}

	var buf bytes.Buffer
	if err := h.deliveryService.Export(c.Context(), middleware.Tenant(c), period, &buf); err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="entregas-%04d-%02d.csv"`, period.Year, period.Month))
	return c.Send(buf.Bytes())
}
