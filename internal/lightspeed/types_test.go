package lightspeed_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantDec   string
		wantInt   int
	}{
		{name: "integer", input: `12`, wantValid: true, wantDec: "12", wantInt: 12},
		{name: "decimal", input: `19.99`, wantValid: true, wantDec: "19.99", wantInt: 19},
		{name: "numeric string", input: `"24.50"`, wantValid: true, wantDec: "24.5", wantInt: 24},
		{name: "padded string", input: `" 7 "`, wantValid: true, wantDec: "7", wantInt: 7},
		{name: "negative clamps to zero", input: `-3`, wantValid: true, wantDec: "0", wantInt: 0},
		{
			name:      "beyond int64 clamps to max",
			input:     `"9223372036854775808"`,
			wantValid: true,
			wantDec:   "9223372036854775808",
			wantInt:   math.MaxInt,
		},
		{name: "max int64 is exact", input: `9223372036854775807`, wantValid: true, wantDec: "9223372036854775807", wantInt: math.MaxInt},
		{name: "null", input: `null`, wantDec: "0"},
		{name: "garbage string", input: `"abc"`, wantDec: "0"},
		{name: "NaN string", input: `"NaN"`, wantDec: "0"},
		{name: "boolean", input: `true`, wantDec: "0"},
		{name: "object", input: `{"amount":1}`, wantDec: "0"},
		{name: "empty string", input: `""`, wantDec: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var n lightspeed.Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.wantValid, n.Valid())
			assert.Equal(t, tt.wantDec, n.Decimal().String())
			assert.Equal(t, tt.wantInt, n.Int())
		})
	}
}

func TestNumber_MissingField(t *testing.T) {
	t.Parallel()

	var v struct {
		Price lightspeed.Number `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &v))
	assert.False(t, v.Price.Valid())
	assert.True(t, v.Price.Decimal().IsZero())
}

func TestRSeriesVariant_TolerantShapes(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "42",
		"title": "Red / L",
		"priceIncl": "29.95",
		"stockLevel": 3,
		"image": false,
		"product": {"resource": {"id": 7}},
		"options": [{"name": "Size", "value": {"name": "L"}}]
	}`

	var v lightspeed.RSeriesVariant
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	assert.Equal(t, lightspeed.FlexID("42"), v.ID)
	assert.Equal(t, lightspeed.FlexID("7"), v.Product.ID)
	assert.Equal(t, "29.95", v.PriceIncl.Decimal().String())
	assert.Empty(t, v.Image.Thumb)
	require.Len(t, v.Options, 1)
	assert.Equal(t, "L", v.Options[0].Value.Name)
}

func TestRSeriesProduct_BrandFalse(t *testing.T) {
	t.Parallel()

	var p lightspeed.RSeriesProduct
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"Tee","brand":false}`), &p))
	assert.Empty(t, p.Brand.ID)
}
