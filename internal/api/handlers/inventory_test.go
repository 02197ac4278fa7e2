package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/api/handlers"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func strPtr(s string) *string { return &s }

func item(id, name, size, category, brand string, price string, stock, alert int) domain.InventoryItem {
	it := domain.InventoryItem{
		ID:                  id,
		ProductID:           "p-" + id,
		ProductName:         name,
		SKU:                 "SKU-" + id,
		Category:            category,
		UnitPrice:           decimal.RequireFromString(price),
		StockOnHand:         stock,
		StockAlertThreshold: alert,
	}
	if size != "" {
		it.Size = strPtr(size)
	}
	if brand != "" {
		it.Brand = strPtr(brand)
	}
	return it
}

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Items: []domain.InventoryItem{
			item("1", "Trail Tee", "L", "tops", "Acme", "20", 10, 5),
			item("2", "Trail Tee", "XL", "tops", "Acme", "20", 2, 5),
			item("3", "Canvas Cap", "", "headwear", "Bolt", "15", 0, 3),
			item("4", "Rain Jacket", "M", "outerwear", "", "100", 4, 2),
		},
		Generation: domain.GenerationXSeries,
		LoadedAt:   time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
		Skipped:    1,
	}
}

type listBody struct {
	Items      []domain.InventoryItem     `json:"items"`
	Statistics domain.InventoryStatistics `json:"statistics"`
	Snapshot   handlers.SnapshotInfo      `json:"snapshot"`
}

func TestInventoryHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantIDs    []string
		wantValue  string
		wantLow    int
		wantOut    int
		wantCatCnt int
	}{
		{
			name:       "no filter returns everything",
			path:       "/api/v1/inventory",
			wantIDs:    []string{"1", "2", "3", "4"},
			wantValue:  "640",
			wantLow:    2,
			wantOut:    1,
			wantCatCnt: 3,
		},
		{
			name:       "size is exact and case-insensitive",
			path:       "/api/v1/inventory?size=l",
			wantIDs:    []string{"1"},
			wantValue:  "200",
			wantCatCnt: 1,
		},
		{
			name:       "repeated sizes are OR-ed",
			path:       "/api/v1/inventory?size=L&size=XL",
			wantIDs:    []string{"1", "2"},
			wantValue:  "240",
			wantLow:    1,
			wantCatCnt: 1,
		},
		{
			name:       "category and in-stock are AND-ed",
			path:       "/api/v1/inventory?category=headwear&in_stock=true",
			wantIDs:    []string{},
			wantValue:  "0",
			wantCatCnt: 0,
		},
		{
			name:       "low stock",
			path:       "/api/v1/inventory?low_stock=true",
			wantIDs:    []string{"2", "3"},
			wantValue:  "40",
			wantLow:    2,
			wantOut:    1,
			wantCatCnt: 2,
		},
		{
			name:       "brand filter excludes items without brand",
			path:       "/api/v1/inventory?brand=acme",
			wantIDs:    []string{"1", "2"},
			wantValue:  "240",
			wantLow:    1,
			wantCatCnt: 1,
		},
		{
			name:       "search term",
			path:       "/api/v1/inventory?q=jacket",
			wantIDs:    []string{"4"},
			wantValue:  "400",
			wantCatCnt: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			svc.On("Current").Return(testSnapshot(), nil).Once()
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

			resp := api.Get(tt.path)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			var body listBody
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

			ids := make([]string, 0, len(body.Items))
			for _, it := range body.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), body.Statistics.TotalItems)
			assert.True(t, decimal.RequireFromString(tt.wantValue).Equal(body.Statistics.TotalValue),
				"total value %s", body.Statistics.TotalValue)
			assert.Equal(t, tt.wantLow, body.Statistics.LowStockItems)
			assert.Equal(t, tt.wantOut, body.Statistics.OutOfStockItems)
			assert.Equal(t, tt.wantCatCnt, body.Statistics.CategoriesCount)
			assert.Equal(t, domain.GenerationXSeries, body.Snapshot.Generation)
			assert.Equal(t, 1, body.Snapshot.Skipped)
		})
	}
}

func TestInventoryHandler_NotLoaded(t *testing.T) {
	t.Parallel()

	paths := []string{
		"/api/v1/inventory",
		"/api/v1/inventory/stats",
		"/api/v1/inventory/facets",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			svc.On("Current").Return(nil, engine.ErrNoSnapshot).Once()

			_, api := humatest.New(t)
			handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

			resp := api.Get(path)
			assert.Equal(t, http.StatusNotFound, resp.Code)
			assert.Contains(t, resp.Body.String(), "inventory not loaded")
			svc.AssertExpectations(t)
		})
	}
}

func TestInventoryHandler_Stats(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.On("Current").Return(testSnapshot(), nil).Once()

	_, api := humatest.New(t)
	handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

	resp := api.Get("/api/v1/inventory/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `"total_items":4`)
	assert.Contains(t, body, `"total_value":"640"`)
	assert.Contains(t, body, `"low_stock_items":2`)
	assert.Contains(t, body, `"out_of_stock_items":1`)
	assert.Contains(t, body, `"categories_count":3`)
	assert.Contains(t, body, "2025-06-15T14:30:00Z")
}

func TestInventoryHandler_Facets(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.On("Current").Return(testSnapshot(), nil).Once()

	_, api := humatest.New(t)
	handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

	resp := api.Get("/api/v1/inventory/facets")
	require.Equal(t, http.StatusOK, resp.Code)

	var facets domain.Facets
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &facets))
	assert.Len(t, facets.Sizes, 3)
	assert.Len(t, facets.Categories, 3)
	assert.Len(t, facets.Brands, 2)
}

func TestInventoryHandler_BySize(t *testing.T) {
	t.Parallel()

	creds := domain.ModernCredentials{StoreDomain: "shop", AccessToken: "tok"}
	matched := []domain.InventoryItem{item("9", "Trail Tee", "XL", "tops", "Acme", "25", 4, 5)}

	tests := []struct {
		name       string
		setupMock  func(*mockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns matching items",
			setupMock: func(m *mockService) {
				m.On("Credentials", mock.Anything).Return(creds, nil).Once()
				m.On("LoadInventoryBySize", mock.Anything, creds, "XL").Return(matched, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"total_value":"100"`,
		},
		{
			name: "no credentials",
			setupMock: func(m *mockService) {
				m.On("Credentials", mock.Anything).Return(nil, engine.ErrNoCredentials).Once()
			},
			wantStatus: http.StatusPreconditionFailed,
			wantBody:   "no credentials configured",
		},
		{
			name: "token rejected after refresh",
			setupMock: func(m *mockService) {
				m.On("Credentials", mock.Anything).Return(creds, nil).Once()
				m.On("LoadInventoryBySize", mock.Anything, creds, "XL").
					Return(nil, &lightspeed.AuthExpiredError{Generation: domain.GenerationXSeries}).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "authorization expired",
		},
		{
			name: "vendor unavailable",
			setupMock: func(m *mockService) {
				m.On("Credentials", mock.Anything).Return(creds, nil).Once()
				m.On("LoadInventoryBySize", mock.Anything, creds, "XL").
					Return(nil, &lightspeed.UpstreamUnavailableError{
						Op: "products", Attempts: 3, Err: errors.New("503"),
					}).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "vendor API unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			tt.setupMock(svc)
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

			resp := api.Get("/api/v1/inventory/sizes/XL")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestInventoryHandler_Reload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		snap       *domain.Snapshot
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "reports loaded snapshot",
			snap:       testSnapshot(),
			wantStatus: http.StatusOK,
			wantBody:   `"total_items":4`,
		},
		{
			name:       "vendor rejects request",
			err:        &lightspeed.VendorRequestError{Op: "products", Status: 404, Body: "not found"},
			wantStatus: http.StatusBadGateway,
			wantBody:   "status 404",
		},
		{
			name:       "unexpected error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			svc.On("Reload", mock.Anything).Return(tt.snap, tt.err).Once()
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterInventoryRoutes(api, handlers.NewInventoryHandler(svc))

			resp := api.Post("/api/v1/inventory/reload")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}
