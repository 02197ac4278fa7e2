package inventory

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// ComputeStatistics aggregates totals over items. An empty slice yields a
// zeroed result.
func ComputeStatistics(items []domain.InventoryItem) domain.InventoryStatistics {
	stats := domain.InventoryStatistics{
		TotalItems: len(items),
		TotalValue: decimal.Zero,
	}

	categories := make(map[string]struct{})
	for i := range items {
		item := &items[i]

		stats.TotalValue = stats.TotalValue.Add(
			item.UnitPrice.Mul(decimal.NewFromInt(int64(item.StockOnHand))),
		)
		if LowStock(item) {
			stats.LowStockItems++
		}
		if OutOfStock(item) {
			stats.OutOfStockItems++
		}
		categories[item.Category] = struct{}{}
	}
	stats.CategoriesCount = len(categories)

	return stats
}

// ComputeFacets lists distinct sizes, categories and brands with counts,
// ordered by descending count then value.
func ComputeFacets(items []domain.InventoryItem) domain.Facets {
	sizes := make(map[string]int)
	categories := make(map[string]int)
	brands := make(map[string]int)

	for i := range items {
		if s := items[i].SizeValue(); s != "" {
			sizes[s]++
		}
		if items[i].Category != "" {
			categories[items[i].Category]++
		}
		if b := items[i].BrandValue(); b != "" {
			brands[b]++
		}
	}

	return domain.Facets{
		Sizes:      sortedCounts(sizes),
		Categories: sortedCounts(categories),
		Brands:     sortedCounts(brands),
	}
}

func sortedCounts(m map[string]int) []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(m))
	for v, n := range m {
		out = append(out, domain.FacetCount{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.FacetCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}
