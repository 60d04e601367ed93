package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"school-service/prometheus"
)

// MetricsMiddleware records request counts and latencies
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		prometheus.RecordHTTPRequest(
			c.Request().Method,
			c.Path(),
			c.Response().Status,
			time.Since(start).Seconds(),
		)

		return err
	}
}
