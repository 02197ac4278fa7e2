package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const httpDuration = "invdash_http_request_duration_seconds"

// RequestRate shows API requests per second.
func RequestRate() *timeseries.PanelBuilder {
	return series("Request Rate", "HTTP requests per second", TSWidth).
		WithTarget(PromQuery(`invdash:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip())
}

// LatencyPercentiles shows p50, p95 and p99 request latency.
func LatencyPercentiles() *timeseries.PanelBuilder {
	p := series("Latency Percentiles", "HTTP request duration percentiles", TSWidth)
	for i, q := range []struct {
		v      float64
		legend string
	}{{0.50, "p50"}, {0.95, "p95"}, {0.99, "p99"}} {
		p.WithTarget(PromQuery(quantile(q.v, httpDuration, "5m"), q.legend, string(rune('A'+i))))
	}
	return p.
		Unit("s").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip())
}

// ErrorRate shows 5xx responses as a percentage of all requests.
func ErrorRate() *timeseries.PanelBuilder {
	return series("Error Rate %", "HTTP 5xx error rate as percentage of total requests", TSWidth).
		WithTarget(PromQuery(`invdash:http_errors:rate5m / invdash:http_requests:rate5m * 100`, "error %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
