package rules

// vendorErrorStatuses matches throttled, server-side and transport failures.
const vendorErrorStatuses = `5..|429|error`

// RecordingRules returns the pre-computed rates the dashboard and alerts
// read instead of the raw counters.
func RecordingRules() PrometheusRule {
	return newResource("invdash-recording-rules", "invdash-recording",
		record("invdash:http_requests:rate5m",
			`sum(rate(invdash_http_requests_total[5m]))`),
		record("invdash:http_errors:rate5m",
			`sum(rate(invdash_http_requests_total{status=~"5.."}[5m]))`),
		record("invdash:vendor_requests:rate5m",
			`sum(rate(invdash_vendor_requests_total[5m]))`),
		record("invdash:vendor_errors:rate5m",
			`sum(rate(invdash_vendor_requests_total{status=~"`+vendorErrorStatuses+`"}[5m]))`),
		record("invdash:inventory_load_errors:rate5m",
			`sum(rate(invdash_inventory_load_errors_total[5m]))`),
		record("invdash:normalization_skipped:rate5m",
			`sum(rate(invdash_normalization_skipped_total[5m]))`),
	)
}
