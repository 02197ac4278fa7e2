package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, VendorRequestsTotal)
	assert.NotNil(t, VendorPagesTotal)
	assert.NotNil(t, VendorRetriesTotal)
	assert.NotNil(t, VendorBreakerTransitionsTotal)
	assert.NotNil(t, TokenRefreshesTotal)
	assert.NotNil(t, InventoryLoadDuration)
	assert.NotNil(t, InventoryLoadErrorsTotal)
	assert.NotNil(t, NormalizationSkippedTotal)
	assert.NotNil(t, InventoryItems)
	assert.NotNil(t, InventoryLastLoadTimestamp)
}

func TestInventoryItemsGauge(t *testing.T) {
	t.Parallel()

	InventoryItems.Set(42)
	assert.InDelta(t, 42.0, testutil.ToFloat64(InventoryItems), 0.001)
}
