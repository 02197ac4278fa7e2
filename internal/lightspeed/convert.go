package lightspeed

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

const (
	unknownProductName      = "Unknown Product"
	defaultModernStockAlert = 5
)

// Result is the outcome of normalizing one batch of vendor records.
type Result struct {
	Items   []domain.InventoryItem
	Skipped []*MalformedRecordError
}

// Normalizer maps vendor records of either generation onto InventoryItem.
// A record that cannot be mapped is skipped; the batch always completes.
type Normalizer struct {
	classifier       *inventory.Classifier
	modernStockAlert int
	logger           *slog.Logger
	nowFunc          func() time.Time
}

// NormalizerOption configures the Normalizer.
type NormalizerOption func(*Normalizer)

// WithClassifier sets the category classifier.
func WithClassifier(c *inventory.Classifier) NormalizerOption {
	return func(n *Normalizer) {
		n.classifier = c
	}
}

// WithModernStockAlert sets the alert threshold applied to X-Series items,
// which carry none of their own.
func WithModernStockAlert(threshold int) NormalizerOption {
	return func(n *Normalizer) {
		n.modernStockAlert = max(threshold, 0)
	}
}

// WithNormalizerLogger sets the logger.
func WithNormalizerLogger(l *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = l
	}
}

// WithNormalizerNowFunc overrides the time function for testing.
func WithNormalizerNowFunc(f func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		n.nowFunc = f
	}
}

// NewNormalizer creates a Normalizer using the default category rules.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		classifier:       inventory.NewClassifier(nil, ""),
		modernStockAlert: defaultModernStockAlert,
		logger:           slog.Default(),
		nowFunc:          time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeLegacy joins R-Series variants to their parent products. A variant
// whose product is unknown is kept under "Unknown Product".
func (n *Normalizer) NormalizeLegacy(products, variants []json.RawMessage) Result {
	now := n.nowFunc()
	res := Result{Items: make([]domain.InventoryItem, 0, len(variants))}

	byID := make(map[FlexID]*RSeriesProduct, len(products))
	for _, raw := range products {
		var p RSeriesProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			n.skip(&res, domain.GenerationRSeries, recordID(raw), "decoding product: "+err.Error())
			continue
		}
		if !validID(string(p.ID)) {
			n.skip(&res, domain.GenerationRSeries, "", "product has no id")
			continue
		}
		byID[p.ID] = &p
	}

	for _, raw := range variants {
		var v RSeriesVariant
		if err := json.Unmarshal(raw, &v); err != nil {
			n.skip(&res, domain.GenerationRSeries, recordID(raw), "decoding variant: "+err.Error())
			continue
		}
		if !validID(string(v.ID)) {
			n.skip(&res, domain.GenerationRSeries, "", "variant has no id")
			continue
		}
		res.Items = append(res.Items, n.legacyItem(&v, byID[v.Product.ID], now))
	}

	n.report(domain.GenerationRSeries, &res)
	return res
}

func (n *Normalizer) legacyItem(v *RSeriesVariant, p *RSeriesProduct, now time.Time) domain.InventoryItem {
	name := unknownProductName
	var brand *string
	var productImage string
	if p != nil {
		name = firstNonEmpty(p.Title, p.FullTitle, unknownProductName)
		brand = optional(string(p.Brand.ID))
		productImage = firstNonEmpty(p.Image.Thumb, p.Image.Src)
	}

	var size, color *string
	for i := range v.Options {
		opt := &v.Options[i]
		switch {
		case size == nil && isSizeOption(opt.Name):
			size = optional(opt.Value.Name)
		case color == nil && isColorOption(opt.Name):
			color = optional(opt.Value.Name)
		}
	}

	return domain.InventoryItem{
		ID:                  string(v.ID),
		ProductID:           string(v.Product.ID),
		ProductName:         name,
		VariantLabel:        v.Title,
		SKU:                 firstNonEmpty(v.SKU, v.ArticleCode),
		EAN:                 v.EAN,
		Size:                size,
		Color:               color,
		Category:            n.classifier.Classify(name),
		Brand:               brand,
		UnitPrice:           v.PriceIncl.Decimal(),
		StockOnHand:         v.StockLevel.Int(),
		StockAlertThreshold: v.StockAlert.Int(),
		ImageURL:            firstNonEmpty(v.Image.Thumb, v.Image.Src, productImage),
		LastUpdated:         parseTime(v.UpdatedAt, now),
	}
}

// NormalizeModern maps X-Series product variants. Each record is one
// variant; its product id is the parent id when present.
func (n *Normalizer) NormalizeModern(products []json.RawMessage) Result {
	now := n.nowFunc()
	res := Result{Items: make([]domain.InventoryItem, 0, len(products))}

	for _, raw := range products {
		var p XSeriesProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			n.skip(&res, domain.GenerationXSeries, recordID(raw), "decoding product: "+err.Error())
			continue
		}
		if !validID(p.ID) {
			n.skip(&res, domain.GenerationXSeries, "", "product has no id")
			continue
		}
		res.Items = append(res.Items, n.modernItem(&p, now))
	}

	n.report(domain.GenerationXSeries, &res)
	return res
}

func (n *Normalizer) modernItem(p *XSeriesProduct, now time.Time) domain.InventoryItem {
	var size, color *string
	for i := range p.VariantOptions {
		opt := &p.VariantOptions[i]
		switch {
		case size == nil && isSizeOption(opt.Name):
			size = optional(opt.Value)
		case color == nil && isColorOption(opt.Name):
			color = optional(opt.Value)
		}
	}

	var sku, ean string
	for _, code := range p.ProductCodes {
		switch strings.ToLower(code.Type) {
		case "sku":
			if sku == "" {
				sku = code.Code
			}
		case "ean":
			if ean == "" {
				ean = code.Code
			}
		}
	}

	alert := n.modernStockAlert
	if p.Inventory.ReorderPoint.Valid() {
		alert = p.Inventory.ReorderPoint.Int()
	}

	return domain.InventoryItem{
		ID:                  p.ID,
		ProductID:           firstNonEmpty(p.VariantParentID, p.ID),
		ProductName:         p.Name,
		VariantLabel:        p.VariantName,
		SKU:                 sku,
		EAN:                 ean,
		Size:                size,
		Color:               color,
		Category:            n.classifier.Classify(p.Name),
		Brand:               optional(brandName(p.Brand)),
		UnitPrice:           p.Pricing.DefaultPrice.Decimal(),
		StockOnHand:         p.Inventory.TotalQuantity.Int(),
		StockAlertThreshold: alert,
		ImageURL:            p.ImageThumbnailURL,
		LastUpdated:         parseTime(p.UpdatedAt, now),
	}
}

func (n *Normalizer) skip(res *Result, gen domain.Generation, id, reason string) {
	err := &MalformedRecordError{Generation: gen, RecordID: id, Reason: reason}
	res.Skipped = append(res.Skipped, err)
	n.logger.Warn("skipping malformed record", "generation", gen, "id", id, "reason", reason)
}

func (n *Normalizer) report(gen domain.Generation, res *Result) {
	if len(res.Skipped) > 0 {
		metrics.NormalizationSkippedTotal.WithLabelValues(string(gen)).Add(float64(len(res.Skipped)))
	}
}

func isSizeOption(name string) bool {
	return strings.Contains(strings.ToLower(name), "size")
}

func isColorOption(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "color") || strings.Contains(lower, "colour")
}

func validID(id string) bool {
	return id != "" && id != "0"
}

// recordID best-effort extracts an id from a record that failed to decode.
func recordID(raw json.RawMessage) string {
	var rec struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil || len(rec.ID) == 0 {
		return ""
	}
	return strings.Trim(string(rec.ID), `"`)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
