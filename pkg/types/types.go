// Package domain defines the core business types for the inventory dashboard.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category constants produced by the default title classifier.
const (
	CategoryClothing    = "clothing"
	CategoryShoes       = "shoes"
	CategoryAccessories = "accessories"
)

// InventoryItem is the canonical, vendor-independent inventory record. One
// item corresponds to one sellable variant.
type InventoryItem struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	VariantLabel        string          `json:"variant_label"`
	SKU                 string          `json:"sku"`
	EAN                 string          `json:"ean"`
	Size                *string         `json:"size,omitempty"`
	Color               *string         `json:"color,omitempty"`
	Category            string          `json:"category"`
	Brand               *string         `json:"brand,omitempty"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	StockOnHand         int             `json:"stock_on_hand"`
	StockAlertThreshold int             `json:"stock_alert_threshold"`
	ImageURL            string          `json:"image_url,omitempty"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// SizeValue returns the item size or "" when the item has none.
func (i *InventoryItem) SizeValue() string {
	if i.Size == nil {
		return ""
	}
	return *i.Size
}

// ColorValue returns the item color or "" when the item has none.
func (i *InventoryItem) ColorValue() string {
	if i.Color == nil {
		return ""
	}
	return *i.Color
}

// BrandValue returns the item brand or "" when the item has none.
func (i *InventoryItem) BrandValue() string {
	if i.Brand == nil {
		return ""
	}
	return *i.Brand
}

// FilterQuery is a composable inventory filter. The zero value matches
// everything.
type FilterQuery struct {
	Sizes        []string `json:"sizes,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Brands       []string `json:"brands,omitempty"`
	InStockOnly  bool     `json:"in_stock_only,omitempty"`
	LowStockOnly bool     `json:"low_stock_only,omitempty"`
	SearchTerm   string   `json:"search_term,omitempty"`
}

// InventoryStatistics holds aggregates derived from an item collection.
type InventoryStatistics struct {
	TotalItems      int             `json:"total_items"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockItems   int             `json:"low_stock_items"`
	OutOfStockItems int             `json:"out_of_stock_items"`
	CategoriesCount int             `json:"categories_count"`
}

// FacetCount is a distinct attribute value and the number of items carrying it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets lists the distinct sizes, categories and brands of a collection.
type Facets struct {
	Sizes      []FacetCount `json:"sizes"`
	Categories []FacetCount `json:"categories"`
	Brands     []FacetCount `json:"brands"`
}

// Snapshot is the immutable result of one completed inventory load.
type Snapshot struct {
	Items      []InventoryItem `json:"items"`
	Generation Generation      `json:"generation"`
	LoadedAt   time.Time       `json:"loaded_at"`
	Skipped    int             `json:"skipped"`
	Truncated  bool            `json:"truncated"`
}

// OAuthSession is the short-lived state kept between the authorization
// redirect and the vendor callback.
type OAuthSession struct {
	State         string    `json:"state"`
	CodeVerifier  string    `json:"code_verifier"`
	CodeChallenge string    `json:"code_challenge"`
	AuthorizeURL  string    `json:"authorize_url"`
	StoreDomain   string    `json:"store_domain,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TokenResult is the outcome of an authorization-code or refresh grant.
type TokenResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	AccountID    string    `json:"account_id,omitempty"`
}
