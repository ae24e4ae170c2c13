package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

// RequireRole lets the request through when the token role is at least role.
// It must run after AuthMiddleware.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return unauthorized(c, "unauthorized")
		}
		if !claims.Role.Satisfies(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         true,
				"message":       "insufficient permissions",
				"required_role": role,
			})
		}
		return c.Next()
	}
}

// RequireAdmin is a convenience middleware for requiring the club admin role
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}

// RequireSuperAdmin restricts platform routes
func RequireSuperAdmin() fiber.Handler {
	return RequireRole(domain.RoleSuperAdmin)
}
