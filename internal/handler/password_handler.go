package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type PasswordHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewPasswordHandler(authService *service.AuthService, validator *validator.Validator) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
		validator:   validator,
	}
}

// ForgotPassword sends a reset link. The answer is the same whether or not the
// email belongs to an account.
// POST /api/v1/auth/forgot-password
func (h *PasswordHandler) ForgotPassword(c *fiber.Ctx) error {
	var req service.ForgotPasswordRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.authService.ForgotPassword(c.Context(), req.Email); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": domain.MsgPasswordResetSent,
	})
}

// ResetPassword sets a new password from a reset token
// POST /api/v1/auth/reset-password
func (h *PasswordHandler) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.authService.ResetPassword(c.Context(), req.Token, req.Password); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password reset successfully",
	})
}
