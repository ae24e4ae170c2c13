package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type UserHandler struct {
	customerService *service.CustomerService
	validator       *validator.Validator
}

func NewUserHandler(customerService *service.CustomerService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		customerService: customerService,
		validator:       validator,
	}
}

// GetProfile returns the caller's customer profile. A customer who never
// saved one gets an empty profile.
// GET /api/v1/customers/me/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.customerService.GetProfile(c.Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile saves phone, birth date, preferences and address
// PUT /api/v1/customers/me/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	profile, err := h.customerService.SaveProfile(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(profile)
}

// DeleteUser removes a customer account of the club
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.customerService.DeleteUser(c.Context(), middleware.Tenant(c), middleware.UserID(c), id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}
