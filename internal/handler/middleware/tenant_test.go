package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

type stubResolver map[string]error

func (s stubResolver) Resolve(_ context.Context, slug string) (domain.TenantContext, error) {
	err, ok := s[slug]
	if !ok {
		return domain.TenantContext{}, domain.ErrTenantNotFound
	}
	if err != nil {
		return domain.TenantContext{}, err
	}
	return domain.TenantContext{ID: uuid.NewSHA1(uuid.Nil, []byte(slug)), Slug: slug, Name: slug}, nil
}

func tenantApp(cfg TenantConfig) *fiber.App {
	app := fiber.New()
	resolver := stubResolver{"acme": nil, "beta": nil, "sleepy": domain.ErrTenantSuspended}
	app.Get("/", TenantMiddleware(resolver, cfg), func(c *fiber.Ctx) error {
		return c.SendString(Tenant(c).Slug)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, host, tenant string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	if host != "" {
		req.Host = host
	}
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func errorMessage(t *testing.T, body string) string {
	t.Helper()
	var payload struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.True(t, payload.Error)
	return payload.Message
}

func TestTenantResolutionOrder(t *testing.T) {
	app := tenantApp(TenantConfig{
		Domains:     map[string]string{"clube.beta.com.br": "beta"},
		DefaultSlug: "acme",
	})

	status, body := doRequest(t, app, "clube.beta.com.br", "acme")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "acme", body)

	status, body = doRequest(t, app, "clube.beta.com.br:8080", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "beta", body)

	status, body = doRequest(t, app, "localhost", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "acme", body)
}

func TestTenantFailures(t *testing.T) {
	app := tenantApp(TenantConfig{})

	status, body := doRequest(t, app, "localhost", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.MsgTenantNotFound, errorMessage(t, body))

	status, body = doRequest(t, app, "", "ghost")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.MsgTenantNotFound, errorMessage(t, body))

	status, body = doRequest(t, app, "", "sleepy")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, domain.MsgTenantSuspended, errorMessage(t, body))
}

func TestOptionalTenant(t *testing.T) {
	app := tenantApp(TenantConfig{Optional: true})

	status, body := doRequest(t, app, "localhost", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body)

	status, _ = doRequest(t, app, "", "ghost")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestTenantGuard(t *testing.T) {
	acmeID := uuid.NewSHA1(uuid.Nil, []byte("acme"))
	otherID := uuid.New()

	tests := []struct {
		name   string
		claims *domain.Claims
		want   int
	}{
		{name: "member", claims: &domain.Claims{Role: domain.RoleUser, TenantID: &acmeID}, want: fiber.StatusOK},
		{name: "other tenant", claims: &domain.Claims{Role: domain.RoleAdmin, TenantID: &otherID}, want: fiber.StatusForbidden},
		{name: "no tenant claim", claims: &domain.Claims{Role: domain.RoleAdmin}, want: fiber.StatusForbidden},
		{name: "superadmin", claims: &domain.Claims{Role: domain.RoleSuperAdmin}, want: fiber.StatusOK},
		{name: "anonymous", want: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/",
				func(c *fiber.Ctx) error {
					if tt.claims != nil {
						c.Locals(localClaims, tt.claims)
					}
					return c.Next()
				},
				TenantMiddleware(stubResolver{"acme": nil}, TenantConfig{}),
				TenantGuard(),
				func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
			)

			status, _ := doRequest(t, app, "", "acme")
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleUser, fiber.StatusForbidden},
		{domain.RoleAdmin, fiber.StatusOK},
		{domain.RoleSuperAdmin, fiber.StatusOK},
	}
	for _, tt := range tests {
		app := fiber.New()
		app.Get("/",
			func(c *fiber.Ctx) error {
				c.Locals(localClaims, &domain.Claims{Role: tt.role})
				return c.Next()
			},
			RequireAdmin(),
			func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
		)
		status, _ := doRequest(t, app, "", "")
		assert.Equal(t, tt.want, status, "role %s", tt.role)
	}
}
