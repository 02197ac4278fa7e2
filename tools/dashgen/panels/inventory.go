package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// LoadDuration shows the p95 full inventory load duration per generation.
func LoadDuration() *timeseries.PanelBuilder {
	return series("Load Duration (p95)", "95th percentile full inventory load duration", ThirdWidth).
		WithTarget(PromQuery(
			quantile(0.95, "invdash_inventory_load_duration_seconds", "30m", "generation"),
			"{{generation}}", "A",
		)).
		Unit("s")
}

// LoadErrors shows failed loads by error kind.
func LoadErrors() *timeseries.PanelBuilder {
	return series("Load Errors", "Failed inventory loads by error kind", ThirdWidth).
		WithTarget(PromQuery(sumIncrease("invdash_inventory_load_errors_total", "1h", "kind"), "{{kind}}", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleBars)
}

// TokenRefreshes shows X-Series OAuth refreshes by outcome.
func TokenRefreshes() *timeseries.PanelBuilder {
	return series("Token Refreshes", "X-Series OAuth token refresh attempts by outcome", ThirdWidth).
		WithTarget(PromQuery(sumIncrease("invdash_token_refreshes_total", "1h", "outcome"), "{{outcome}}", "A")).
		DrawStyle(common.GraphDrawStyleBars)
}

// SkippedRecords shows vendor records dropped as malformed during
// normalization.
func SkippedRecords() *timeseries.PanelBuilder {
	return series("Skipped Records / min", "Vendor records skipped as malformed during normalization", TSWidth).
		WithTarget(PromQuery(`invdash:normalization_skipped:rate5m * 60`, "records/min", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds())
}

// PagesRate shows aggregated result pages per generation and resource.
func PagesRate() *timeseries.PanelBuilder {
	return series("Pages / min", "Vendor result pages aggregated per generation and resource", TSWidth).
		WithTarget(PromQuery(
			sumRate("invdash_vendor_pages_total", "5m", "generation", "resource")+" * 60",
			"{{generation}} {{resource}}", "A",
		))
}
