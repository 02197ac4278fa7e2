package main

import "errors"

// KnownMetrics is the set of metric names exported by inventory-dashboard
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"invdash_http_request_duration_seconds": true,
	"invdash_http_requests_total":           true,

	// Health metrics.
	"invdash_healthz_up": true,
	"invdash_readyz_up":  true,

	// Vendor API metrics.
	"invdash_vendor_requests_total":            true,
	"invdash_vendor_pages_total":               true,
	"invdash_vendor_retries_total":             true,
	"invdash_vendor_breaker_transitions_total": true,
	"invdash_token_refreshes_total":            true,

	// Inventory metrics.
	"invdash_inventory_load_duration_seconds":       true,
	"invdash_inventory_load_errors_total":           true,
	"invdash_normalization_skipped_total":           true,
	"invdash_inventory_items":                       true,
	"invdash_inventory_last_load_timestamp_seconds": true,

	// Recording rules.
	"invdash:http_requests:rate5m":         true,
	"invdash:http_errors:rate5m":           true,
	"invdash:vendor_requests:rate5m":       true,
	"invdash:vendor_errors:rate5m":         true,
	"invdash:inventory_load_errors:rate5m": true,
	"invdash:normalization_skipped:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
