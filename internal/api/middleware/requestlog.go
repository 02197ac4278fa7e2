package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/tracing"
)

const requestIDHeader = "X-Request-ID"

// RequestIDKey is the echo context key holding the request ID.
const RequestIDKey = "request_id"

// probePaths are logged on their first success and on every failure only.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context. 5xx responses log at error, 4xx at
// warn.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu          sync.Mutex
		probeLogged = make(map[string]bool)
	)

	// shouldLogProbe reports whether a probe response is worth a log line.
	shouldLogProbe := func(path string, status int) bool {
		mu.Lock()
		defer mu.Unlock()

		if status >= http.StatusBadRequest {
			probeLogged[path] = false
			return true
		}
		if probeLogged[path] {
			return false
		}
		probeLogged[path] = true
		return true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(RequestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is final.
				c.Error(err)
			}

			path := c.Request().URL.Path
			status := c.Response().Status

			if _, probe := probePaths[path]; probe && !shouldLogProbe(path, status) {
				return nil
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if traceID := tracing.TraceID(c.Request().Context()); traceID != "" {
				attrs = append(attrs, "trace_id", traceID)
			}

			log.Log(c.Request().Context(), level, "request", attrs...)

			return nil
		}
	}
}
