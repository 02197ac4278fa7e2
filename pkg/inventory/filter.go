// Package inventory evaluates filter queries and aggregate statistics over a
// normalized inventory collection. Every function here is total: any
// well-formed item slice produces a result, never an error.
package inventory

import (
	"strings"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// LowStock reports whether the item is at or below its own alert threshold.
func LowStock(item *domain.InventoryItem) bool {
	return item.StockOnHand <= item.StockAlertThreshold
}

// OutOfStock reports whether the item has no stock on hand.
func OutOfStock(item *domain.InventoryItem) bool {
	return item.StockOnHand == 0
}

// ApplyFilter returns the items that satisfy every non-empty constraint of q,
// in input order. Multi-valued dimensions match when any value matches.
func ApplyFilter(items []domain.InventoryItem, q domain.FilterQuery) []domain.InventoryItem {
	m := newMatcher(q)
	if m.empty() {
		out := make([]domain.InventoryItem, len(items))
		copy(out, items)
		return out
	}

	out := make([]domain.InventoryItem, 0, len(items))
	for i := range items {
		if m.matches(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// Matches reports whether a single item satisfies q.
func Matches(item *domain.InventoryItem, q domain.FilterQuery) bool {
	return newMatcher(q).matches(item)
}

type matcher struct {
	sizes        map[string]struct{}
	categories   map[string]struct{}
	brands       map[string]struct{}
	inStockOnly  bool
	lowStockOnly bool
	search       string
}

func newMatcher(q domain.FilterQuery) *matcher {
	return &matcher{
		sizes:        foldSet(q.Sizes),
		categories:   foldSet(q.Categories),
		brands:       foldSet(q.Brands),
		inStockOnly:  q.InStockOnly,
		lowStockOnly: q.LowStockOnly,
		search:       strings.ToLower(strings.TrimSpace(q.SearchTerm)),
	}
}

func (m *matcher) empty() bool {
	return len(m.sizes) == 0 &&
		len(m.categories) == 0 &&
		len(m.brands) == 0 &&
		!m.inStockOnly &&
		!m.lowStockOnly &&
		m.search == ""
}

func (m *matcher) matches(item *domain.InventoryItem) bool {
	// Sizes compare exactly after case folding: "L" must not match "XL".
	if !inSet(m.sizes, item.Size) {
		return false
	}
	if len(m.categories) > 0 {
		if _, ok := m.categories[strings.ToLower(item.Category)]; !ok {
			return false
		}
	}
	if !inSet(m.brands, item.Brand) {
		return false
	}
	if m.inStockOnly && OutOfStock(item) {
		return false
	}
	if m.lowStockOnly && !LowStock(item) {
		return false
	}
	if m.search != "" && !strings.Contains(searchText(item), m.search) {
		return false
	}
	return true
}

// inSet passes when the set is empty, and otherwise requires a present value
// in the set.
func inSet(set map[string]struct{}, v *string) bool {
	if len(set) == 0 {
		return true
	}
	if v == nil {
		return false
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(*v))]
	return ok
}

func foldSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func searchText(item *domain.InventoryItem) string {
	return strings.ToLower(strings.Join([]string{
		item.ProductName,
		item.VariantLabel,
		item.SKU,
		item.EAN,
		item.SizeValue(),
		item.ColorValue(),
	}, " "))
}
