package main

import (
	"fmt"
	"time"
)

// catalogVariant is one sellable size of a catalog product.
type catalogVariant struct {
	ID         int
	Size       string
	SKU        string
	EAN        string
	Price      string
	Stock      int
	StockAlert int
}

// catalogProduct is one product with its variants.
type catalogProduct struct {
	ID       int
	Name     string
	Brand    string
	BrandID  int
	Category string
	Variants []catalogVariant
	Updated  time.Time
}

var (
	productNames = []string{
		"Trail Tee", "Canvas Cap", "Rain Jacket", "Merino Sock", "Fleece Hoodie",
		"Chino Short", "Denim Jean", "Wool Beanie", "Running Short", "Linen Shirt",
	}
	brands = []string{"Acme", "Bolt", "Cobalt", ""}
	sizes  = []string{"S", "M", "L", "XL"}
)

// buildCatalog generates n products deterministically. Every seventh
// product has no size variants and every fifth variant is out of stock.
func buildCatalog(n int) []catalogProduct {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	out := make([]catalogProduct, 0, n)
	variantID := 1000

	for i := range n {
		name := productNames[i%len(productNames)]
		if i >= len(productNames) {
			name = fmt.Sprintf("%s %d", name, i/len(productNames)+1)
		}
		brandIdx := i % len(brands)
		p := catalogProduct{
			ID:      i + 1,
			Name:    name,
			Brand:   brands[brandIdx],
			BrandID: brandIdx + 1,
			Updated: base.Add(time.Duration(i) * time.Hour),
		}

		variantSizes := sizes
		if i%7 == 6 {
			variantSizes = []string{""}
		}
		for j, size := range variantSizes {
			variantID++
			stock := (i*3 + j*5) % 25
			if variantID%5 == 0 {
				stock = 0
			}
			p.Variants = append(p.Variants, catalogVariant{
				ID:         variantID,
				Size:       size,
				SKU:        fmt.Sprintf("SKU-%04d-%s", p.ID, sizeOrOS(size)),
				EAN:        fmt.Sprintf("871%010d", variantID),
				Price:      fmt.Sprintf("%d.%02d", 10+(i%9)*5, (j*25)%100),
				Stock:      stock,
				StockAlert: 3,
			})
		}
		out = append(out, p)
	}
	return out
}

func sizeOrOS(s string) string {
	if s == "" {
		return "OS"
	}
	return s
}
