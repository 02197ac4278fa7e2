// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/pos-inventory-dashboard/tools/dashgen/panels"
)

// BuildOverview constructs the Inventory Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Inventory Overview").
		Uid("invdash-overview").
		Tags([]string{"invdash", "inventory-dashboard", "lightspeed"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.InventoryItemsStat()).
		WithPanel(panels.LastLoadStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Lightspeed API.
	b.WithRow(dashboard.NewRowBuilder("Lightspeed API").
		WithPanel(panels.VendorRequestRate()).
		WithPanel(panels.VendorErrorRate()).
		WithPanel(panels.RetryRate()).
		WithPanel(panels.BreakerTransitions()))

	// Row 4: Inventory loads.
	b.WithRow(dashboard.NewRowBuilder("Inventory Loads").
		WithPanel(panels.LoadDuration()).
		WithPanel(panels.LoadErrors()).
		WithPanel(panels.TokenRefreshes()).
		WithPanel(panels.SkippedRecords()).
		WithPanel(panels.PagesRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
