package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"melina-board/internal/metrics"
)

// Metrics returns middleware that records Prometheus metrics. Paths are
// labelled by route pattern so board ids do not explode cardinality.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		path := c.Route().Path

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Method(), path, strconv.Itoa(status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Method(), path,
		).Observe(time.Since(start).Seconds())

		return err
	}
}
