package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/pkg/blacklist"
	"github.com/osvaldobrewjaria/fazumclube/pkg/jwt"
)

// Keys of values stored in fiber locals
const (
	localClaims = "claims"
	localToken  = "token"
	localTenant = "tenant"
	localError  = "error"
)

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(tokenService *jwt.TokenService, tokenBlacklist *blacklist.TokenBlacklist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return unauthorized(c, "invalid authorization header format")
		}
		token := parts[1]

		claims, err := tokenService.ValidateAccessToken(token)
		if err != nil {
			return unauthorized(c, "invalid token")
		}

		revoked, err := tokenBlacklist.IsBlacklisted(c.Context(), claims.ID)
		if err != nil {
			SetError(c, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "failed to verify token status",
			})
		}
		if revoked {
			return unauthorized(c, "token has been revoked")
		}

		// Password resets and account deletion revoke every earlier token
		if claims.IssuedAt != nil {
			userRevoked, err := tokenBlacklist.IsUserBlacklisted(c.Context(), claims.UserID.String(), claims.IssuedAt.Time)
			if err != nil {
				SetError(c, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   true,
					"message": "failed to verify token status",
				})
			}
			if userRevoked {
				return unauthorized(c, "token has been revoked")
			}
		}

		c.Locals(localClaims, claims)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// Claims returns the claims stored by AuthMiddleware, or nil
func Claims(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(localClaims).(*domain.Claims)
	return claims
}

// UserID returns the authenticated user id, or uuid.Nil
func UserID(c *fiber.Ctx) uuid.UUID {
	if claims := Claims(c); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}
