package middleware

import (
	"storefront/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics counts every request by method, matched route and status.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		m.ObserveRequest(c.Method(), c.Route().Path, status)
		return err
	}
}
