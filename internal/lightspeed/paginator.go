package lightspeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

const (
	defaultLegacyPageSize = 250
	defaultModernPageSize = 200
	defaultMaxPages       = 500
)

// Pagination stop reasons.
const (
	StopShortPage = "short_page"
	StopMaxPages  = "max_pages"
)

// Pagination configures one paged aggregation.
type Pagination struct {
	Generation domain.Generation
	Resource   string
	PageSize   int
	MaxPages   int
	PageDelay  time.Duration
	Logger     *slog.Logger
}

// PageFetcher fetches the zero-based page index. It must return at most
// PageSize records.
type PageFetcher[T any] func(ctx context.Context, index int) ([]T, error)

// PageResult holds the records of a completed aggregation.
type PageResult[T any] struct {
	Records   []T
	Pages     int
	StoppedAt string
	Truncated bool
}

// Paginate fetches pages strictly in order until a page shorter than
// PageSize arrives or MaxPages pages have been read. Hitting MaxPages marks
// the result truncated. Any page error aborts the aggregation.
func Paginate[T any](ctx context.Context, p Pagination, fetch PageFetcher[T]) (*PageResult[T], error) {
	if p.PageSize <= 0 {
		return nil, fmt.Errorf("paginating %s: page size must be positive", p.Resource)
	}
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pacer := NewPacer(p.PageDelay)
	result := &PageResult[T]{}

	for index := range maxPages {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		records, err := fetch(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("fetching %s page %d: %w", p.Resource, index+1, err)
		}

		result.Pages++
		result.Records = append(result.Records, records...)
		metrics.VendorPagesTotal.WithLabelValues(string(p.Generation), p.Resource).Inc()

		if len(records) < p.PageSize {
			result.StoppedAt = StopShortPage
			return result, nil
		}
	}

	result.StoppedAt = StopMaxPages
	result.Truncated = true
	logger.Warn("page limit reached, result truncated",
		"resource", p.Resource,
		"generation", p.Generation,
		"pages", result.Pages,
		"records", len(result.Records),
	)
	return result, nil
}
