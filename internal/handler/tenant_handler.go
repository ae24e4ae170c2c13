package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type TenantHandler struct {
	tenantService *service.TenantService
	reportService *service.ReportService
	validator     *validator.Validator
}

func NewTenantHandler(tenantService *service.TenantService, reportService *service.ReportService, validator *validator.Validator) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		reportService: reportService,
		validator:     validator,
	}
}

// Provision creates a club with its owner account
// POST /api/v1/tenants/provision
func (h *TenantHandler) Provision(c *fiber.Ctx) error {
	var req service.ProvisionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	result, err := h.tenantService.Provision(c.Context(), req, sessionMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// Lookup answers whether a storefront exists for a slug
// GET /api/v1/tenants/:slug
func (h *TenantHandler) Lookup(c *fiber.Ctx) error {
	result, err := h.tenantService.Lookup(c.Context(), c.Params("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// GetSettings returns the club settings
// GET /api/v1/admin/settings
func (h *TenantHandler) GetSettings(c *fiber.Ctx) error {
	tenant, err := h.tenantService.Get(c.Context(), middleware.Tenant(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":       tenant.ID,
		"slug":     tenant.Slug,
		"name":     tenant.Name,
		"settings": tenant.Settings,
	})
}

// UpdateSettings merges a partial settings document
// PUT /api/v1/admin/settings
func (h *TenantHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch domain.TenantSettingsPatch
	if err := parseBody(c, h.validator, &patch); err != nil {
		return writeError(c, err)
	}

	settings, err := h.tenantService.UpdateSettings(c.Context(), middleware.Tenant(c), patch)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"settings": settings,
	})
}

// ListTenants lists clubs with their counters
// GET /api/v1/platform/tenants?status=ACTIVE&page=1&limit=20
func (h *TenantHandler) ListTenants(c *fiber.Ctx) error {
	limit, page, offset := pagination(c)

	tenants, total, err := h.tenantService.List(c.Context(), domain.TenantStatus(c.Query("status")), limit, offset)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"tenants":    tenants,
		"pagination": paginationMap(total, page, limit),
	})
}

// ChangeStatus suspends or reactivates a club
// PATCH /api/v1/platform/tenants/:id/status
func (h *TenantHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Status domain.TenantStatus `json:"status" validate:"required"`
	}
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	tenant, err := h.tenantService.ChangeStatus(c.Context(), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(tenant)
}

// DeleteTenant soft-deletes a club
// DELETE /api/v1/platform/tenants/:id
func (h *TenantHandler) DeleteTenant(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.tenantService.SoftDelete(c.Context(), id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Club deleted successfully",
	})
}

// PlatformStats returns counters across all clubs
// GET /api/v1/platform/stats
func (h *TenantHandler) PlatformStats(c *fiber.Ctx) error {
	stats, err := h.reportService.Platform(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// Dashboard returns the club KPIs
// GET /api/v1/admin/dashboard
func (h *TenantHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.reportService.Dashboard(c.Context(), middleware.Tenant(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}
