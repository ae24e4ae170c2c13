package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a member account in the request tenant
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	resp, err := h.authService.Register(c.Context(), middleware.Tenant(c), req, sessionMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	resp, err := h.authService.Login(c.Context(), middleware.Tenant(c), req, sessionMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// RefreshToken rotates a refresh token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return writeError(c, err)
	}

	tokens, err := h.authService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout revokes the access token and, when given, the refresh session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, requestError("Invalid request body"))
		}
	}

	if err := h.authService.Logout(c.Context(), middleware.Claims(c), req.RefreshToken); err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}
