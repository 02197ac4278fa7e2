package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		handler    echo.HandlerFunc
		wantStatus int
		wantLog    []string
	}{
		{
			name:   "no panic passes through",
			method: http.MethodGet,
			path:   "/test",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "string panic",
			method: http.MethodGet,
			path:   "/panic",
			handler: func(_ echo.Context) error {
				panic("test panic")
			},
			wantStatus: http.StatusInternalServerError,
			wantLog:    []string{"panic recovered", "test panic", "path=/panic", "request_id=req-1"},
		},
		{
			name:   "non-string panic",
			method: http.MethodPost,
			path:   "/api/v1/inventory/reload",
			handler: func(_ echo.Context) error {
				panic(42)
			},
			wantStatus: http.StatusInternalServerError,
			wantLog:    []string{"42", "method=POST"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(RequestIDKey, "req-1")

			err := Recovery(logger)(tt.handler)(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if len(tt.wantLog) == 0 {
				assert.Empty(t, buf.String())
				return
			}

			assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
			assert.JSONEq(t,
				`{"title":"Internal Server Error","status":500,"detail":"internal server error"}`,
				rec.Body.String())
			for _, w := range tt.wantLog {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
