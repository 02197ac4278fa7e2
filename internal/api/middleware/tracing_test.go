package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	mw "github.com/donaldgifford/pos-inventory-dashboard/internal/api/middleware"
)

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	e := echo.New()
	e.Use(mw.Tracing())
	e.GET("/api/v1/inventory/sizes/:size", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.POST("/api/v1/inventory/reload", func(c echo.Context) error {
		return c.NoContent(http.StatusServiceUnavailable)
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/sizes/L", http.NoBody)
	req.Header.Set("traceparent", "00-"+parentTrace+"-00f067aa0ba902b7-01")
	e.ServeHTTP(httptest.NewRecorder(), req)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/inventory/reload", http.NoBody))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	spans := rec.Ended()
	require.Len(t, spans, 2, "probes are not traced")

	assert.Equal(t, "GET /api/v1/inventory/sizes/:size", spans[0].Name())
	assert.Equal(t, parentTrace, spans[0].SpanContext().TraceID().String())

	assert.Equal(t, "POST /api/v1/inventory/reload", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
