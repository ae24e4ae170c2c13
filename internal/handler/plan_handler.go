package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type PlanHandler struct {
	planService *service.PlanService
	validator   *validator.Validator
}

func NewPlanHandler(planService *service.PlanService, validator *validator.Validator) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		validator:   validator,
	}
}

// ListPublic lists the plans on sale with their active prices
// GET /api/v1/plans
func (h *PlanHandler) ListPublic(c *fiber.Ctx) error {
	plans, err := h.planService.ListPublic(c.Context(), middleware.Tenant(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"plans": plans,
	})
}

// GetPlan returns one plan by slug
// GET /api/v1/plans/:slug
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.planService.GetBySlug(c.Context(), middleware.Tenant(c), c.Params("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plan)
}

// ListPlans lists every plan, inactive ones included
// GET /api/v1/admin/plans
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.Context(), middleware.Tenant(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"plans": plans,
	})
}

// CreatePlan creates a plan with its prices
// POST /api/v1/admin/plans
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req service.PlanInput
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	plan, err := h.planService.Create(c.Context(), middleware.Tenant(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(plan)
}

// UpdatePlan replaces a plan and upserts its prices
// PUT /api/v1/admin/plans/:id
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req service.PlanInput
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	plan, err := h.planService.Update(c.Context(), middleware.Tenant(c), id, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(plan)
}

// DeletePlan deactivates a plan
// DELETE /api/v1/admin/plans/:id
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.planService.Delete(c.Context(), middleware.Tenant(c), id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Plan deactivated successfully",
	})
}
