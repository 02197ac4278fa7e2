package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// InventoryService is the part of the engine the inventory routes use.
type InventoryService interface {
	Current() (*domain.Snapshot, error)
	Reload(ctx context.Context) (*domain.Snapshot, error)
	Credentials(ctx context.Context) (domain.Credentials, error)
	LoadInventoryBySize(ctx context.Context, creds domain.Credentials, size string) ([]domain.InventoryItem, error)
}

// InventoryHandler serves the loaded inventory snapshot.
type InventoryHandler struct {
	svc InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(svc InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// --- Input/Output types ---

// ListInventoryInput filters the snapshot. Repeated values are OR-ed; the
// different parameters are AND-ed.
type ListInventoryInput struct {
	Sizes      []string `query:"size,explode"     doc:"Size to include (repeatable, case-insensitive)"`
	Categories []string `query:"category,explode" doc:"Category to include (repeatable, case-insensitive)"`
	Brands     []string `query:"brand,explode"    doc:"Brand to include (repeatable, case-insensitive)"`
	InStock    bool     `query:"in_stock"         doc:"Only items with stock on hand"`
	LowStock   bool     `query:"low_stock"        doc:"Only items at or below their stock alert threshold"`
	Query      string   `query:"q"                doc:"Case-insensitive search over name, variant, SKU, EAN, size and color"`
}

// SnapshotInfo describes the snapshot a response was computed from.
type SnapshotInfo struct {
	Generation domain.Generation `json:"generation"  example:"x_series"             doc:"API generation the snapshot was loaded from"`
	LoadedAt   time.Time         `json:"loaded_at"   example:"2025-06-15T14:30:00Z" doc:"When the snapshot finished loading"`
	Skipped    int               `json:"skipped"     example:"0"                    doc:"Vendor records dropped as malformed"`
	Truncated  bool              `json:"truncated"   example:"false"                doc:"Whether pagination stopped at the page limit"`
}

// ListInventoryOutput is the filtered view and its statistics.
type ListInventoryOutput struct {
	Body struct {
		Items      []domain.InventoryItem     `json:"items"`
		Statistics domain.InventoryStatistics `json:"statistics"`
		Snapshot   SnapshotInfo               `json:"snapshot"`
	}
}

// StatsOutput is the statistics of the whole snapshot.
type StatsOutput struct {
	Body struct {
		Statistics domain.InventoryStatistics `json:"statistics"`
		Snapshot   SnapshotInfo               `json:"snapshot"`
	}
}

// FacetsOutput lists the distinct filter values of the snapshot.
type FacetsOutput struct {
	Body domain.Facets
}

// SizeInput is the input for a size-scoped fetch.
type SizeInput struct {
	Size string `path:"size" doc:"Size value, matched exactly and case-insensitively" example:"XL"`
}

// SizeOutput is the result of a size-scoped fetch.
type SizeOutput struct {
	Body struct {
		Size       string                     `json:"size"`
		Items      []domain.InventoryItem     `json:"items"`
		Statistics domain.InventoryStatistics `json:"statistics"`
	}
}

// ReloadOutput summarizes a completed load.
type ReloadOutput struct {
	Body struct {
		Snapshot   SnapshotInfo `json:"snapshot"`
		TotalItems int          `json:"total_items" example:"1342"`
	}
}

// --- Handlers ---

// ListInventory returns the snapshot items matching the filter together with
// statistics of the filtered view.
func (h *InventoryHandler) ListInventory(
	_ context.Context,
	input *ListInventoryInput,
) (*ListInventoryOutput, error) {
	snap, err := h.svc.Current()
	if err != nil {
		return nil, apiError(err)
	}

	items := inventory.ApplyFilter(snap.Items, domain.FilterQuery{
		Sizes:        input.Sizes,
		Categories:   input.Categories,
		Brands:       input.Brands,
		InStockOnly:  input.InStock,
		LowStockOnly: input.LowStock,
		SearchTerm:   input.Query,
	})
	if items == nil {
		items = []domain.InventoryItem{}
	}

	resp := &ListInventoryOutput{}
	resp.Body.Items = items
	resp.Body.Statistics = inventory.ComputeStatistics(items)
	resp.Body.Snapshot = snapshotInfo(snap)
	return resp, nil
}

// GetStats returns statistics of the whole snapshot.
func (h *InventoryHandler) GetStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	snap, err := h.svc.Current()
	if err != nil {
		return nil, apiError(err)
	}

	resp := &StatsOutput{}
	resp.Body.Statistics = inventory.ComputeStatistics(snap.Items)
	resp.Body.Snapshot = snapshotInfo(snap)
	return resp, nil
}

// GetFacets returns the sizes, categories and brands present in the snapshot.
func (h *InventoryHandler) GetFacets(_ context.Context, _ *struct{}) (*FacetsOutput, error) {
	snap, err := h.svc.Current()
	if err != nil {
		return nil, apiError(err)
	}
	return &FacetsOutput{Body: inventory.ComputeFacets(snap.Items)}, nil
}

// GetBySize fetches the items of one size from the vendor with the stored
// credentials. The loaded snapshot is left untouched.
func (h *InventoryHandler) GetBySize(ctx context.Context, input *SizeInput) (*SizeOutput, error) {
	creds, err := h.svc.Credentials(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	items, err := h.svc.LoadInventoryBySize(ctx, creds, input.Size)
	if err != nil {
		return nil, apiError(err)
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}

	resp := &SizeOutput{}
	resp.Body.Size = input.Size
	resp.Body.Items = items
	resp.Body.Statistics = inventory.ComputeStatistics(items)
	return resp, nil
}

// Reload loads the inventory with the stored credentials and replaces the
// snapshot.
func (h *InventoryHandler) Reload(ctx context.Context, _ *struct{}) (*ReloadOutput, error) {
	snap, err := h.svc.Reload(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &ReloadOutput{}
	resp.Body.Snapshot = snapshotInfo(snap)
	resp.Body.TotalItems = len(snap.Items)
	return resp, nil
}

func snapshotInfo(snap *domain.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		Generation: snap.Generation,
		LoadedAt:   snap.LoadedAt,
		Skipped:    snap.Skipped,
		Truncated:  snap.Truncated,
	}
}

// RegisterInventoryRoutes registers inventory endpoints with the Huma API.
func RegisterInventoryRoutes(api huma.API, h *InventoryHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-inventory",
		Method:      http.MethodGet,
		Path:        "/api/v1/inventory",
		Summary:     "List inventory",
		Description: "Returns snapshot items matching the size, category, brand, stock and search filters, with statistics of the filtered view.",
		Tags:        []string{"inventory"},
		Errors:      []int{http.StatusNotFound},
	}, h.ListInventory)

	huma.Register(api, huma.Operation{
		OperationID: "get-inventory-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/inventory/stats",
		Summary:     "Get inventory statistics",
		Description: "Returns item count, total stock value, low and out of stock counts, and category count for the whole snapshot.",
		Tags:        []string{"inventory"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "get-inventory-facets",
		Method:      http.MethodGet,
		Path:        "/api/v1/inventory/facets",
		Summary:     "Get inventory facets",
		Description: "Returns the distinct sizes, categories and brands in the snapshot with item counts.",
		Tags:        []string{"inventory"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetFacets)

	huma.Register(api, huma.Operation{
		OperationID: "get-inventory-by-size",
		Method:      http.MethodGet,
		Path:        "/api/v1/inventory/sizes/{size}",
		Summary:     "Fetch inventory for one size",
		Description: "Fetches items of one size directly from the vendor using the stored credentials.",
		Tags:        []string{"inventory"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusPreconditionFailed,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, h.GetBySize)

	huma.Register(api, huma.Operation{
		OperationID: "reload-inventory",
		Method:      http.MethodPost,
		Path:        "/api/v1/inventory/reload",
		Summary:     "Reload inventory",
		Description: "Loads the full catalog with the stored credentials and replaces the snapshot.",
		Tags:        []string{"inventory"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusPreconditionFailed,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, h.Reload)
}
