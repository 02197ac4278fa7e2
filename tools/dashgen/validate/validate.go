// Package validate checks generated dashboards and rules for PromQL syntax
// errors and references to metrics the service does not export.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/pos-inventory-dashboard/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings are
// reported only.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// histogramSuffixes are the series suffixes Prometheus derives from a
// histogram or summary.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses a PromQL expression and checks every metric it selects
// against known.
func Expr(expr string, known map[string]bool) error {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", expr, err)
	}

	var unknown []string
	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !knownMetric(vs.Name, known) {
			unknown = append(unknown, vs.Name)
		}
		return nil
	})

	if len(unknown) > 0 {
		return fmt.Errorf("unknown metrics in %q: %s", expr, strings.Join(unknown, ", "))
	}
	return nil
}

func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Dashboard validates every Prometheus query in dash, including panels
// nested in rows. Panels without queries are reported as warnings.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for _, p := range dash.Panels {
		if p.Panel != nil {
			res.merge(panel(*p.Panel, known))
		}
		if p.RowPanel != nil {
			for _, inner := range p.RowPanel.Panels {
				res.merge(panel(inner, known))
			}
		}
	}
	return res
}

func panel(p dashboard.Panel, known map[string]bool) Result {
	var res Result
	title := "untitled"
	if p.Title != nil {
		title = *p.Title
	}

	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no queries", title))
		return res
	}

	for _, target := range p.Targets {
		q, ok := target.(*prometheus.Dataquery)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has a non-Prometheus query", title))
			continue
		}
		if err := Expr(q.Expr, known); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("panel %q: %v", title, err))
		}
	}
	return res
}

// Rules validates the expressions of every rule in the given CRs. Recording
// rule names are added to the known set so later rules can reference them.
func Rules(known map[string]bool, crs ...rules.PrometheusRule) Result {
	names := make(map[string]bool, len(known))
	for k, v := range known {
		names[k] = v
	}
	for _, cr := range crs {
		for _, r := range cr.All() {
			if !r.IsAlert() {
				names[r.Record] = true
			}
		}
	}

	var res Result
	for _, cr := range crs {
		for _, r := range cr.All() {
			if err := Expr(r.Expr, names); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("rule %s: %v", r.Name(), err))
			}
			if r.IsAlert() && r.Labels["severity"] == "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("alert %s has no severity label", r.Name()))
			}
		}
	}
	return res
}
