package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/pos-inventory-dashboard/internal/api/client"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printItemsTable(w io.Writer, items []domain.InventoryItem) error {
	tw := newTabWriter(w)
	tw.writef("SKU\tNAME\tSIZE\tCOLOR\tCATEGORY\tBRAND\tPRICE\tSTOCK\tALERT\n")
	for i := range items {
		it := &items[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			dash(it.SKU),
			truncate(it.ProductName, 40),
			dash(it.SizeValue()),
			dash(it.ColorValue()),
			dash(it.Category),
			dash(it.BrandValue()),
			it.UnitPrice.StringFixed(2),
			it.StockOnHand,
			it.StockAlertThreshold,
		)
	}
	return tw.finish()
}

func printStats(w io.Writer, s domain.InventoryStatistics, snap *apiclient.SnapshotInfo) error {
	tw := newTabWriter(w)
	tw.writef("Items:\t%d\n", s.TotalItems)
	tw.writef("Total value:\t%s\n", s.TotalValue.StringFixed(2))
	tw.writef("Low stock:\t%d\n", s.LowStockItems)
	tw.writef("Out of stock:\t%d\n", s.OutOfStockItems)
	tw.writef("Categories:\t%d\n", s.CategoriesCount)
	if snap != nil {
		tw.writef("Generation:\t%s\n", snap.Generation)
		tw.writef("Loaded at:\t%s\n", snap.LoadedAt.Format(time.DateTime))
		if snap.Skipped > 0 {
			tw.writef("Skipped records:\t%d\n", snap.Skipped)
		}
		if snap.Truncated {
			tw.writef("Truncated:\tyes (page limit reached)\n")
		}
	}
	return tw.finish()
}

func printFacets(w io.Writer, f *domain.Facets) error {
	tw := newTabWriter(w)
	tw.writef("FACET\tVALUE\tCOUNT\n")
	for _, group := range []struct {
		name   string
		counts []domain.FacetCount
	}{
		{"size", f.Sizes},
		{"category", f.Categories},
		{"brand", f.Brands},
	} {
		for _, c := range group.counts {
			tw.writef("%s\t%s\t%d\n", group.name, c.Value, c.Count)
		}
	}
	return tw.finish()
}

func printCredentialStatus(w io.Writer, st *apiclient.CredentialStatus) error {
	tw := newTabWriter(w)
	if !st.Configured {
		tw.writef("Configured:\tno\n")
		return tw.finish()
	}
	tw.writef("Configured:\tyes\n")
	tw.writef("Generation:\t%s\n", st.Generation)
	switch st.Generation {
	case domain.GenerationRSeries:
		tw.writef("Cluster:\t%s\n", st.Cluster)
	case domain.GenerationXSeries:
		tw.writef("Store domain:\t%s\n", st.StoreDomain)
		tw.writef("Account:\t%s\n", dash(st.AccountID))
		if st.ExpiresAt != nil {
			tw.writef("Token expires:\t%s\n", st.ExpiresAt.Format(time.DateTime))
		}
		tw.writef("Can refresh:\t%v\n", st.CanRefresh)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
