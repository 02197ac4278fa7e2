package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const stackLimit = 4096

// Recovery turns a handler panic into a problem+json 500 shaped like the
// API's own errors. The panic and its stack are logged with the request ID
// and recorded on the request span.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				reportPanic(c, log, fmt.Sprint(r))
				err = writeProblem(c, http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}

func reportPanic(c echo.Context, log *slog.Logger, msg string) {
	buf := make([]byte, stackLimit)
	buf = buf[:runtime.Stack(buf, false)]

	req := c.Request()
	reqID, _ := c.Get(RequestIDKey).(string)
	log.Error("panic recovered",
		"error", msg,
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", reqID,
		"stack", string(buf),
	)

	span := trace.SpanFromContext(req.Context())
	span.RecordError(fmt.Errorf("panic: %s", msg))
	span.SetStatus(codes.Error, "panic")
}

func writeProblem(c echo.Context, status int, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
