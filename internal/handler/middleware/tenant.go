package middleware

import (
	"context"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

// TenantHeader names the tenant slug explicitly
const TenantHeader = "X-Tenant"

// TenantResolver turns a slug into a tenant context. It returns
// domain.ErrTenantNotFound or domain.ErrTenantSuspended for unusable tenants.
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (domain.TenantContext, error)
}

type TenantConfig struct {
	// Domains maps a request host to a tenant slug
	Domains     map[string]string
	DefaultSlug string
	// Optional lets requests without any tenant hint through with no tenant
	// attached. A hint naming an unusable tenant is still rejected.
	Optional bool
}

// TenantMiddleware resolves the request tenant from the X-Tenant header, then
// the Host through the domain table, then the default slug
func TenantMiddleware(resolver TenantResolver, cfg TenantConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := tenantSlug(c, cfg)
		if slug == "" {
			if cfg.Optional {
				return c.Next()
			}
			return tenantError(c, domain.ErrTenantNotFound)
		}

		tc, err := resolver.Resolve(c.Context(), slug)
		if err != nil {
			return tenantError(c, err)
		}
		c.Locals(localTenant, tc)
		return c.Next()
	}
}

func tenantSlug(c *fiber.Ctx, cfg TenantConfig) string {
	if slug := strings.TrimSpace(c.Get(TenantHeader)); slug != "" {
		return slug
	}
	host := strings.ToLower(c.Hostname())
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if slug, ok := cfg.Domains[host]; ok {
		return slug
	}
	return cfg.DefaultSlug
}

func tenantError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": domain.MsgTenantNotFound})
	case errors.Is(err, domain.ErrTenantSuspended):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": domain.MsgTenantSuspended})
	}
	SetError(c, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "internal server error"})
}

// TenantGuard rejects authenticated requests whose token was issued for
// another tenant. Superadmins pass. It must run after TenantMiddleware and
// AuthMiddleware.
func TenantGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return unauthorized(c, "unauthorized")
		}
		tc := Tenant(c)
		if claims.Role == domain.RoleSuperAdmin || (!tc.IsZero() && claims.HasTenant(tc.ID)) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": domain.ErrTenantMismatch.Error(),
		})
	}
}

// Tenant returns the resolved tenant, or the zero context when none was
// resolved
func Tenant(c *fiber.Ctx) domain.TenantContext {
	tc, _ := c.Locals(localTenant).(domain.TenantContext)
	return tc
}
