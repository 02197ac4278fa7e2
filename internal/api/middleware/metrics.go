// Package middleware provides Echo middleware for the inventory dashboard.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
)

// probeRoutes are kept out of the request histogram. A non-nil gauge is
// set to 1 while the route answers 2xx and 0 otherwise.
var probeRoutes = map[string]prometheus.Gauge{
	"/metrics": nil,
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics records request duration and count by method, route template and
// status, so /api/v1/inventory/sizes/{size} is one series.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}

			if gauge, probe := probeRoutes[route]; probe {
				err := next(c)
				if gauge != nil {
					gauge.Set(boolToFloat(isSuccess(responseStatus(c, err))))
				}
				return err
			}

			start := time.Now()
			err := next(c)
			observe(c.Request().Method, route, responseStatus(c, err), time.Since(start))
			return err
		}
	}
}

func observe(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	metrics.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	metrics.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// responseStatus is the status the client will see, including errors the
// handler returned that echo has not written yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
