package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/handler/middleware"
	"github.com/osvaldobrewjaria/fazumclube/internal/service"
	"github.com/osvaldobrewjaria/fazumclube/pkg/validator"
)

// requestError is a malformed request detected by the handler itself
type requestError string

func (e requestError) Error() string { return string(e) }

// sentinelStatus maps domain sentinels to their status. Their own text is the
// response message.
var sentinelStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{domain.ErrAccountLocked, fiber.StatusLocked},
	{domain.ErrInvalidToken, fiber.StatusUnauthorized},
	{domain.ErrTenantNotFound, fiber.StatusBadRequest},
	{domain.ErrTenantSuspended, fiber.StatusBadRequest},
	{domain.ErrTenantMismatch, fiber.StatusForbidden},
	{domain.ErrUpstream, fiber.StatusBadGateway},
}

// kindStatus maps error kinds to their status. The kind suffix is trimmed
// from the message where it reads badly.
var kindStatus = []struct {
	kind   error
	status int
	suffix string
}{
	{errors.NotFound, fiber.StatusNotFound, ""},
	{errors.AlreadyExists, fiber.StatusConflict, ""},
	{errors.NotValid, fiber.StatusBadRequest, ""},
	{errors.NotSupported, fiber.StatusBadRequest, ""},
	{errors.BadRequest, fiber.StatusBadRequest, " bad request"},
	{errors.Forbidden, fiber.StatusForbidden, " forbidden"},
	{errors.Unauthorized, fiber.StatusUnauthorized, " unauthorized"},
}

func errorStatus(err error) (int, string) {
	var re requestError
	if errors.As(err, &re) {
		return fiber.StatusBadRequest, re.Error()
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status, s.err.Error()
		}
	}
	for _, k := range kindStatus {
		if errors.Is(err, k.kind) {
			return k.status, strings.TrimSuffix(err.Error(), k.suffix)
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// writeError renders err with the status of its kind. Unexpected errors are
// attached to the request log.
func writeError(c *fiber.Ctx, err error) error {
	status, message := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.SetError(c, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// ErrorHandler is the fiber error handler for errors returned by handlers and
// the router
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}

// parseBody decodes and validates the JSON body into out
func parseBody(c *fiber.Ctx, v *validator.Validator, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return requestError("Invalid request body")
	}
	if err := v.Validate(out); err != nil {
		return requestError(err.Error())
	}
	return nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, requestError("Invalid " + name)
	}
	return id, nil
}

// pagination reads page and limit query params. limit is capped at 100.
func pagination(c *fiber.Ctx) (limit, page, offset int) {
	limit = c.QueryInt("limit", 20)
	page = c.QueryInt("page", 1)

	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return limit, page, (page - 1) * limit
}

func paginationMap(total, page, limit int) fiber.Map {
	return fiber.Map{
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + limit - 1) / limit,
	}
}

func sessionMeta(c *fiber.Ctx) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: c.IP(),
	}
}
