// Package lightspeed talks to the two Lightspeed API generations: R-Series
// (API key and secret over HTTP Basic auth, page/limit pagination) and
// X-Series (OAuth2 with PKCE, bearer tokens, offset/limit pagination). It
// aggregates paged resources and normalizes them into inventory items.
package lightspeed

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
)

const userAgent = "pos-inventory-dashboard/1.0"

var tracer = otel.Tracer("github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed")

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 2048

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
