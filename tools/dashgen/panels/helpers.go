// Package panels provides Grafana dashboard panel builders for
// inventory-dashboard metrics.
package panels

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Job is the Prometheus job label of the scraped service.
const Job = "inventory-dashboard"

// Grid sizes on Grafana's 24-column layout.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth    = 12
	TSHeight   = 8
	ThirdWidth = 8
	FullWidth  = 24
)

// DSRef points a panel at the ${datasource} template variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// JobSelector returns a label matcher restricting a selector to Job.
func JobSelector() string {
	return `job="` + Job + `"`
}

// PromQuery builds a Prometheus target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// sumRate sums the per-second rate of a job-scoped counter, grouped by the
// given labels.
func sumRate(metric, window string, by ...string) string {
	return aggregate("rate", metric, window, by)
}

// sumIncrease is sumRate for increase().
func sumIncrease(metric, window string, by ...string) string {
	return aggregate("increase", metric, window, by)
}

func aggregate(fn, metric, window string, by []string) string {
	expr := fmt.Sprintf("sum(%s(%s{%s}[%s]))", fn, metric, JobSelector(), window)
	if len(by) > 0 {
		expr += " by (" + strings.Join(by, ", ") + ")"
	}
	return expr
}

// quantile returns a histogram_quantile over a job-scoped histogram.
func quantile(q float64, histogram, window string, by ...string) string {
	return fmt.Sprintf("histogram_quantile(%.2f, %s)", q,
		sumRate(histogram+"_bucket", window, append([]string{"le"}, by...)...))
}

// series starts a line timeseries panel with the dashboard's shared styling.
// Callers override thresholds, colors or draw style where they differ.
func series(title, description string, span uint32) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(span).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ThresholdsRedGreen is red below greenAbove and green from it.
func ThresholdsRedGreen(greenAbove float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps(
		dashboard.Threshold{Color: "red"},
		dashboard.Threshold{Value: cog.ToPtr(greenAbove), Color: "green"},
	)
}

// ThresholdsGreenYellowRed returns three-tier thresholds.
func ThresholdsGreenYellowRed(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps(
		dashboard.Threshold{Color: "green"},
		dashboard.Threshold{Value: cog.ToPtr(yellow), Color: "yellow"},
		dashboard.Threshold{Value: cog.ToPtr(red), Color: "red"},
	)
}

// ThresholdsGreenOnly returns a single green step.
func ThresholdsGreenOnly() cog.Builder[dashboard.ThresholdsConfig] {
	return steps(dashboard.Threshold{Color: "green"})
}

func steps(s ...dashboard.Threshold) cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(s)
}

// ColorSchemeThresholds colors values by their threshold step.
func ColorSchemeThresholds() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)
}

// ColorSchemePaletteClassic colors each series from the classic palette.
func ColorSchemePaletteClassic() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// TableLegend shows the legend as a table below the graph.
func TableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

// MultiTooltip shows every series, largest first.
func MultiTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}
