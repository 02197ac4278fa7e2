package rules

// staleAfterSeconds is how old the last successful load may get before
// InvdashInventoryStale fires.
const staleAfterSeconds = "14400"

var alerts = []alert{
	{
		name:        "InvdashDown",
		expr:        `absent(up{job="inventory-dashboard"})`,
		pending:     "2m",
		severity:    "critical",
		summary:     "Inventory dashboard is down",
		description: "The inventory-dashboard job has been absent for more than 2 minutes.",
	},
	{
		name:        "InvdashReadinessDown",
		expr:        `invdash_readyz_up == 0`,
		pending:     "2m",
		severity:    "critical",
		summary:     "Inventory dashboard readiness check is failing",
		description: "The readiness probe has been reporting not-ready for more than 2 minutes.",
	},
	{
		name:        "InvdashHighErrorRate",
		expr:        `invdash:http_errors:rate5m / invdash:http_requests:rate5m > 0.05`,
		pending:     "5m",
		severity:    "warning",
		summary:     "High HTTP error rate on the inventory dashboard",
		description: "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
	},
	{
		name:        "InvdashVendorErrors",
		expr:        `invdash:vendor_errors:rate5m / invdash:vendor_requests:rate5m > 0.2`,
		pending:     "10m",
		severity:    "warning",
		summary:     "Lightspeed API error rate is elevated",
		description: "More than 20% of Lightspeed requests failed with 429, 5xx or a transport error for 10 minutes.",
	},
	{
		name:        "InvdashBreakerOpen",
		expr:        `increase(invdash_vendor_breaker_transitions_total{to="open"}[5m]) > 0`,
		pending:     "0m",
		severity:    "warning",
		summary:     "Lightspeed circuit breaker opened",
		description: "Requests to a Lightspeed host are being rejected without contacting it.",
	},
	{
		name:        "InvdashLoadFailures",
		expr:        `invdash:inventory_load_errors:rate5m > 0`,
		pending:     "15m",
		severity:    "warning",
		summary:     "Inventory loads are failing",
		description: "Inventory reloads have been failing for more than 15 minutes.",
	},
	{
		name: "InvdashInventoryStale",
		expr: `time() - invdash_inventory_last_load_timestamp_seconds > ` + staleAfterSeconds +
			` and invdash_inventory_last_load_timestamp_seconds > 0`,
		pending:     "10m",
		severity:    "warning",
		summary:     "Inventory snapshot is stale",
		description: "No inventory load has succeeded in the last 4 hours.",
	},
	{
		name:        "InvdashTokenRefreshFailures",
		expr:        `increase(invdash_token_refreshes_total{outcome="failure"}[15m]) > 0`,
		pending:     "0m",
		severity:    "critical",
		summary:     "X-Series token refresh failed",
		description: "An OAuth refresh was rejected. The store must be re-authorized through the login flow.",
	},
}

// AlertRules returns the operational alerts for the inventory dashboard.
func AlertRules() PrometheusRule {
	rs := make([]Rule, 0, len(alerts))
	for _, a := range alerts {
		rs = append(rs, a.rule())
	}
	return newResource("invdash-alerts", "invdash-alerts", rs...)
}
