package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/osvaldobrewjaria/fazumclube/pkg/metrics"
)

// LoggerMiddleware logs every request once it completes and feeds the HTTP
// metrics. Handlers attach unexpected errors with SetError so they are logged
// with the request.
func LoggerMiddleware(logger *zap.Logger, collector *metrics.Collector) fiber.Handler {
	log := logger.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		}
		if tc := Tenant(c); !tc.IsZero() {
			fields = append(fields, zap.String("tenant", tc.Slug))
		}
		if handlerErr, ok := c.Locals(localError).(error); ok {
			fields = append(fields, zap.Error(handlerErr))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Info("request", fields...)
		default:
			log.Debug("request", fields...)
		}

		collector.RecordHTTPRequest(c.Method(), c.Route().Path, status, latency)
		return err
	}
}

// SetError records err on the request for the request log
func SetError(c *fiber.Ctx, err error) {
	c.Locals(localError, err)
}
