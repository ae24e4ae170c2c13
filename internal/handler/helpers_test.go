package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"request", requestError("Invalid id"), fiber.StatusBadRequest, "Invalid id"},
		{"credentials", errors.Trace(domain.ErrInvalidCredentials), fiber.StatusUnauthorized, domain.ErrInvalidCredentials.Error()},
		{"locked", domain.ErrAccountLocked, fiber.StatusLocked, domain.ErrAccountLocked.Error()},
		{"tenant", domain.ErrTenantNotFound, fiber.StatusBadRequest, domain.MsgTenantNotFound},
		{"mismatch", domain.ErrTenantMismatch, fiber.StatusForbidden, domain.ErrTenantMismatch.Error()},
		{"upstream", errors.Annotate(domain.ErrUpstream, "creating customer"), fiber.StatusBadGateway, domain.ErrUpstream.Error()},
		{"not found", errors.NotFoundf("plan"), fiber.StatusNotFound, "plan not found"},
		{"exists", errors.AlreadyExistsf("slug %q", "acme"), fiber.StatusConflict, `slug "acme" already exists`},
		{"not valid", errors.NotValidf("month 13"), fiber.StatusBadRequest, "month 13 not valid"},
		{"bad request", errors.BadRequestf(domain.MsgPlanOrPriceNotFound), fiber.StatusBadRequest, domain.MsgPlanOrPriceNotFound},
		{"forbidden", errors.Forbiddenf("cannot delete your own account"), fiber.StatusForbidden, "cannot delete your own account"},
		{"fiber", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, fiber.ErrRequestEntityTooLarge.Message},
		{"unexpected", errors.New("pq: connection refused"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query               string
		limit, page, offset int
	}{
		{"", 20, 1, 0},
		{"?page=3&limit=10", 10, 3, 20},
		{"?limit=500", 100, 1, 0},
		{"?page=-2&limit=0", 20, 1, 0},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			limit, page, offset := pagination(c)
			assert.Equal(t, tt.limit, limit, tt.query)
			assert.Equal(t, tt.page, page, tt.query)
			assert.Equal(t, tt.offset, offset, tt.query)
			return c.SendStatus(fiber.StatusNoContent)
		})
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	assert.Equal(t, 3, paginationMap(41, 1, 20)["total_pages"])
	assert.Equal(t, 0, paginationMap(0, 1, 20)["total_pages"])
}
