package inventory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func TestComputeStatistics_Empty(t *testing.T) {
	t.Parallel()

	for _, items := range [][]domain.InventoryItem{nil, {}} {
		stats := inventory.ComputeStatistics(items)
		assert.Equal(t, 0, stats.TotalItems)
		assert.True(t, stats.TotalValue.IsZero())
		assert.Equal(t, "0", stats.TotalValue.String())
		assert.Equal(t, 0, stats.LowStockItems)
		assert.Equal(t, 0, stats.OutOfStockItems)
		assert.Equal(t, 0, stats.CategoriesCount)
	}
}

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	items := fixtureItems()
	items[0].UnitPrice = decimal.RequireFromString("19.99")
	items[3].UnitPrice = decimal.RequireFromString("120.50")

	stats := inventory.ComputeStatistics(items)

	// 19.99*10 + 10*0 + 10*3 + 120.50*5 + 10*12 + 10*1
	want := decimal.RequireFromString("962.40")

	assert.Equal(t, 6, stats.TotalItems)
	assert.True(t, want.Equal(stats.TotalValue), "got %s", stats.TotalValue)
	assert.Equal(t, 3, stats.LowStockItems)
	assert.Equal(t, 1, stats.OutOfStockItems)
	assert.Equal(t, 3, stats.CategoriesCount)
}

func TestComputeFacets(t *testing.T) {
	t.Parallel()

	facets := inventory.ComputeFacets(fixtureItems())

	require.Len(t, facets.Categories, 3)
	assert.Equal(t, domain.FacetCount{Value: "clothing", Count: 3}, facets.Categories[0])
	assert.Equal(t, domain.FacetCount{Value: "shoes", Count: 2}, facets.Categories[1])
	assert.Equal(t, domain.FacetCount{Value: "accessories", Count: 1}, facets.Categories[2])

	assert.Len(t, facets.Sizes, 5)
	assert.Equal(t, []domain.FacetCount{
		{Value: "acme", Count: 2},
		{Value: "Stride", Count: 1},
	}, facets.Brands)
}

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	c := inventory.NewClassifier(nil, "")

	tests := []struct {
		title string
		want  string
	}{
		{title: "Vintage Band Tee", want: domain.CategoryClothing},
		{title: "Slim JEANS", want: domain.CategoryClothing},
		{title: "Running Sneaker", want: domain.CategoryShoes},
		{title: "Leather Boot", want: domain.CategoryShoes},
		{title: "Hoodie Boot Socks", want: domain.CategoryClothing},
		{title: "Canvas Tote", want: domain.CategoryAccessories},
		{title: "", want: domain.CategoryAccessories},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.title), "title %q", tt.title)
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	t.Parallel()

	c := inventory.NewClassifier([]inventory.CategoryRule{
		{Category: "bags", Keywords: []string{" Tote ", "backpack"}},
		{Category: "clothing", Keywords: []string{"shirt"}},
	}, "misc")

	assert.Equal(t, "bags", c.Classify("Canvas tote with shirt print"))
	assert.Equal(t, "clothing", c.Classify("Oxford Shirt"))
	assert.Equal(t, "misc", c.Classify("Running Sneaker"))
}

func TestCollection_LastReplaceWins(t *testing.T) {
	t.Parallel()

	c := inventory.NewCollection()
	assert.Nil(t, c.Current())

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Replace(&domain.Snapshot{Skipped: i})
		}()
	}
	wg.Wait()

	require.NotNil(t, c.Current())

	final := &domain.Snapshot{LoadedAt: time.Now()}
	c.Replace(final)
	assert.Same(t, final, c.Current())

	c.Clear()
	assert.Nil(t, c.Current())
}

func TestCollection_PublishRejectsStaleEpoch(t *testing.T) {
	t.Parallel()

	c := inventory.NewCollection()

	first := &domain.Snapshot{Skipped: 1}
	assert.True(t, c.Publish(first, c.Epoch()))
	assert.Same(t, first, c.Current())

	stale := c.Epoch()
	c.Clear()
	assert.False(t, c.Publish(&domain.Snapshot{Skipped: 2}, stale))
	assert.Nil(t, c.Current())

	fresh := &domain.Snapshot{Skipped: 3}
	assert.True(t, c.Publish(fresh, c.Epoch()))
	assert.Same(t, fresh, c.Current())
}
