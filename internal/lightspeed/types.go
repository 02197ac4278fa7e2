package lightspeed

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a tolerant numeric field. It decodes JSON numbers and numeric
// strings; null, missing, non-numeric or non-finite input leaves it invalid
// and reads as zero. Decoding a Number never fails.
type Number struct {
	d     decimal.Decimal
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}

	s := string(bytes.TrimSpace(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil //nolint:nilerr // malformed numbers read as zero
		}
		s = strings.TrimSpace(str)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil //nolint:nilerr // malformed numbers read as zero
	}
	n.d = d
	n.valid = true
	return nil
}

// Valid reports whether the source value was numeric.
func (n Number) Valid() bool { return n.valid }

// Decimal returns the value clamped to be non-negative.
func (n Number) Decimal() decimal.Decimal {
	if !n.valid || n.d.IsNegative() {
		return decimal.Zero
	}
	return n.d
}

var maxInt = decimal.NewFromInt(math.MaxInt)

// Int returns the integer part clamped to [0, math.MaxInt].
func (n Number) Int() int {
	switch {
	case !n.valid || n.d.IsNegative():
		return 0
	case n.d.GreaterThan(maxInt):
		return math.MaxInt
	default:
		return int(n.d.IntPart())
	}
}

// NumberOf builds a valid Number, used by fixtures.
func NumberOf(s string) Number {
	var n Number
	_ = n.UnmarshalJSON([]byte(strconv.Quote(s))) //nolint:errcheck // never fails
	return n
}

// FlexID decodes an identifier sent as either a JSON string or number.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	switch {
	case s == "null" || s == "false":
		*id = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*id = FlexID(strings.TrimSpace(str))
	default:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return &json.UnsupportedValueError{Str: s}
		}
		*id = FlexID(s)
	}
	return nil
}

// ResourceRef is an R-Series embedded resource link. The API sends false
// instead of an object when the link is absent.
type ResourceRef struct {
	ID FlexID
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ResourceRef) UnmarshalJSON(b []byte) error {
	*r = ResourceRef{}

	s := string(bytes.TrimSpace(b))
	if s == "null" || s == "false" {
		return nil
	}

	var wire struct {
		Resource struct {
			ID FlexID `json:"id"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	r.ID = wire.Resource.ID
	return nil
}

// Image is an R-Series image block, also sent as false when absent.
type Image struct {
	Thumb string
	Src   string
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Image) UnmarshalJSON(b []byte) error {
	*i = Image{}

	s := string(bytes.TrimSpace(b))
	if s == "null" || s == "false" {
		return nil
	}

	var wire struct {
		Thumb string `json:"thumb"`
		Src   string `json:"src"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	i.Thumb = wire.Thumb
	i.Src = wire.Src
	return nil
}

// RSeriesProduct is one record of the R-Series products.json resource.
type RSeriesProduct struct {
	ID        FlexID      `json:"id"`
	Title     string      `json:"title"`
	FullTitle string      `json:"fulltitle"`
	Brand     ResourceRef `json:"brand"`
	Image     Image       `json:"image"`
	UpdatedAt string      `json:"updatedAt"`
}

// RSeriesVariant is one record of the R-Series variants.json resource.
type RSeriesVariant struct {
	ID          FlexID                 `json:"id"`
	Title       string                 `json:"title"`
	SKU         string                 `json:"sku"`
	EAN         string                 `json:"ean"`
	ArticleCode string                 `json:"articleCode"`
	PriceIncl   Number                 `json:"priceIncl"`
	PriceExcl   Number                 `json:"priceExcl"`
	StockLevel  Number                 `json:"stockLevel"`
	StockAlert  Number                 `json:"stockAlert"`
	UpdatedAt   string                 `json:"updatedAt"`
	Image       Image                  `json:"image"`
	Product     ResourceRef            `json:"product"`
	Options     []RSeriesVariantOption `json:"options"`
}

// RSeriesVariantOption is a name/value option attached to an R-Series variant.
type RSeriesVariantOption struct {
	ID    FlexID `json:"id"`
	Name  string `json:"name"`
	Value struct {
		ID   FlexID `json:"id"`
		Name string `json:"name"`
	} `json:"value"`
}

// XSeriesProduct is one record of the X-Series 2.0 products resource. Each
// record is a single variant carrying its parent reference.
type XSeriesProduct struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	VariantName       string                 `json:"variant_name"`
	HasVariants       bool                   `json:"has_variants"`
	VariantParentID   string                 `json:"variant_parent_id"`
	VariantOptions    []XSeriesVariantOption `json:"variant_options"`
	ProductCodes      []XSeriesProductCode   `json:"product_codes"`
	Pricing           XSeriesPricing         `json:"pricing"`
	Inventory         XSeriesInventory       `json:"inventory"`
	Brand             json.RawMessage        `json:"brand,omitempty"`
	ImageThumbnailURL string                 `json:"image_thumbnail_url"`
	UpdatedAt         string                 `json:"updated_at"`
}

// XSeriesVariantOption is a name/value option of an X-Series variant.
type XSeriesVariantOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// XSeriesProductCode is a typed product code such as sku or ean.
type XSeriesProductCode struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// XSeriesPricing holds X-Series price information.
type XSeriesPricing struct {
	DefaultPrice Number `json:"default_price"`
	Currency     string `json:"currency"`
}

// XSeriesInventory holds X-Series stock information.
type XSeriesInventory struct {
	TotalQuantity    Number                  `json:"total_quantity"`
	ReorderPoint     Number                  `json:"reorder_point"`
	OutletQuantities []XSeriesOutletQuantity `json:"outlet_quantities"`
}

// XSeriesOutletQuantity is the stock held at one outlet.
type XSeriesOutletQuantity struct {
	OutletID   string `json:"outlet_id"`
	OutletName string `json:"outlet_name"`
	Quantity   Number `json:"quantity"`
}

// brandName extracts a brand name from the X-Series brand field, which may
// be an object with a name or a plain string.
func brandName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}
