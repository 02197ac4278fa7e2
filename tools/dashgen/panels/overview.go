package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat shows the liveness probe (1 = ok, 0 = failing).
func HealthzStat() *stat.PanelBuilder {
	return probeStat("Healthz", "Health check status (1 = ok, 0 = failing)", "invdash_healthz_up")
}

// ReadyzStat shows the readiness probe (1 = ready, 0 = not ready).
func ReadyzStat() *stat.PanelBuilder {
	return probeStat("Readyz", "Readiness check status (1 = ready, 0 = not ready)", "invdash_readyz_up")
}

func probeStat(title, description, gauge string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(gauge, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// InventoryItemsStat returns a stat panel showing the size of the current
// inventory snapshot.
func InventoryItemsStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Items Loaded").
		Description("Number of items in the current inventory snapshot").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`invdash_inventory_items{`+JobSelector()+`}`, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

// LastLoadStat returns a stat panel showing time since the last successful
// inventory load.
func LastLoadStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Last Load").
		Description("Time since the last successful inventory load").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - invdash_inventory_last_load_timestamp_seconds{`+JobSelector()+`}`,
			"", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(3600, 14400)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
