package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// VendorRequestRate shows Lightspeed API requests per second by generation
// and response status.
func VendorRequestRate() *timeseries.PanelBuilder {
	return series("Vendor Requests", "Lightspeed API requests per second by generation and status", TSWidth).
		WithTarget(PromQuery(
			sumRate("invdash_vendor_requests_total", "5m", "generation", "status"),
			"{{generation}} {{status}}", "A",
		)).
		Unit("reqps").
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip())
}

// VendorErrorRate shows failed vendor requests as a percentage.
func VendorErrorRate() *timeseries.PanelBuilder {
	return series("Vendor Error %", "Vendor requests that failed with 429, 5xx or a transport error", TSWidth).
		WithTarget(PromQuery(`invdash:vendor_errors:rate5m / invdash:vendor_requests:rate5m * 100`, "error %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(5, 20)).
		ColorScheme(ColorSchemeThresholds())
}

// RetryRate shows page requests retried after a transient failure.
func RetryRate() *timeseries.PanelBuilder {
	return series("Retries / min", "Page requests retried after a transient failure", TSWidth).
		WithTarget(PromQuery(
			sumRate("invdash_vendor_retries_total", "5m", "generation")+" * 60",
			"{{generation}}", "A",
		))
}

// BreakerTransitions shows circuit breaker state changes.
func BreakerTransitions() *timeseries.PanelBuilder {
	return series("Breaker Transitions", "Circuit breaker state changes per breaker and target state", TSWidth).
		WithTarget(PromQuery(
			sumIncrease("invdash_vendor_breaker_transitions_total", "5m", "breaker", "to"),
			"{{breaker}} -> {{to}}", "A",
		)).
		Tooltip(MultiTooltip()).
		DrawStyle(common.GraphDrawStyleBars)
}
