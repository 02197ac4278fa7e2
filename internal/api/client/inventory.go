package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// SnapshotInfo describes the snapshot a response was computed from.
type SnapshotInfo struct {
	Generation domain.Generation `json:"generation"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Skipped    int               `json:"skipped"`
	Truncated  bool              `json:"truncated"`
}

// InventoryResponse is a filtered view of the snapshot.
type InventoryResponse struct {
	Items      []domain.InventoryItem     `json:"items"`
	Statistics domain.InventoryStatistics `json:"statistics"`
	Snapshot   SnapshotInfo               `json:"snapshot"`
}

// StatsResponse holds statistics of the whole snapshot.
type StatsResponse struct {
	Statistics domain.InventoryStatistics `json:"statistics"`
	Snapshot   SnapshotInfo               `json:"snapshot"`
}

// SizeResponse is the result of a size-scoped fetch.
type SizeResponse struct {
	Size       string                     `json:"size"`
	Items      []domain.InventoryItem     `json:"items"`
	Statistics domain.InventoryStatistics `json:"statistics"`
}

// ReloadResponse summarizes a completed load.
type ReloadResponse struct {
	Snapshot   SnapshotInfo `json:"snapshot"`
	TotalItems int          `json:"total_items"`
}

// ListInventory returns the snapshot items matching q.
func (c *Client) ListInventory(ctx context.Context, q domain.FilterQuery) (*InventoryResponse, error) {
	v := url.Values{}
	for _, s := range q.Sizes {
		v.Add("size", s)
	}
	for _, s := range q.Categories {
		v.Add("category", s)
	}
	for _, s := range q.Brands {
		v.Add("brand", s)
	}
	if q.InStockOnly {
		v.Set("in_stock", strconv.FormatBool(true))
	}
	if q.LowStockOnly {
		v.Set("low_stock", strconv.FormatBool(true))
	}
	if q.SearchTerm != "" {
		v.Set("q", q.SearchTerm)
	}

	path := "/api/v1/inventory"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var resp InventoryResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns statistics of the whole snapshot.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.get(ctx, "/api/v1/inventory/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Facets returns the distinct sizes, categories and brands.
func (c *Client) Facets(ctx context.Context) (*domain.Facets, error) {
	var resp domain.Facets
	if err := c.get(ctx, "/api/v1/inventory/facets", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InventoryBySize fetches one size directly from the vendor.
func (c *Client) InventoryBySize(ctx context.Context, size string) (*SizeResponse, error) {
	var resp SizeResponse
	if err := c.get(ctx, "/api/v1/inventory/sizes/"+url.PathEscape(size), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload triggers a full load with the stored credentials.
func (c *Client) Reload(ctx context.Context) (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.post(ctx, "/api/v1/inventory/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
