package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPrice_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantText  string
		wantValue float64
		wantErr   bool
	}{
		{"number", `{"currentPrice": 49.9}`, true, "49.9", 49.9, false},
		{"string", `{"currentPrice": "49.90"}`, true, "49.90", 49.9, false},
		{"thousands separator", `{"currentPrice": "1,299.00"}`, true, "1,299.00", 1299, false},
		{"null", `{"currentPrice": null}`, false, "", 0, false},
		{"absent", `{}`, false, "", 0, false},
		{"empty string", `{"currentPrice": ""}`, false, "", 0, false},
		{"not a number", `{"currentPrice": "cheap"}`, false, "", 0, true},
		{"NaN", `{"currentPrice": "NaN"}`, false, "", 0, true},
		{"Inf", `{"currentPrice": "Inf"}`, false, "", 0, true},
		{"negative Infinity", `{"currentPrice": "-Infinity"}`, false, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateProductRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, req.CurrentPrice.IsSet())
			if tt.wantSet {
				assert.Equal(t, tt.wantText, req.CurrentPrice.Text)
				assert.Equal(t, tt.wantValue, req.CurrentPrice.Value)
			}
		})
	}
}

func TestIsPositivePrice(t *testing.T) {
	assert.True(t, IsPositivePrice(0.01))
	assert.False(t, IsPositivePrice(0))
	assert.False(t, IsPositivePrice(-1))
	assert.False(t, IsPositivePrice(math.NaN()))
	assert.False(t, IsPositivePrice(math.Inf(1)))
}

func TestProductSummary_MarshalJSON(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	product := Product{ID: "p1", Name: "Kettle", URL: "https://example.com", Website: "example.com", CreatedAt: created}

	t.Run("without observation", func(t *testing.T) {
		data, err := json.Marshal(ProductSummary{Product: product})
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Nil(t, out["currentPrice"])
		assert.Nil(t, out["lastChecked"])
		assert.Equal(t, DefaultCurrency, out["currency"])
		assert.Equal(t, "2024-01-02T03:04:05Z", out["createdAt"])
	})

	t.Run("with observation", func(t *testing.T) {
		checked := created.Add(time.Hour)
		data, err := json.Marshal(ProductSummary{
			Product: product,
			Latest:  &PriceHistory{ID: "h1", Price: 12.5, Currency: "EUR", CheckedAt: checked},
		})
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, 12.5, out["currentPrice"])
		assert.Equal(t, "EUR", out["currency"])
		assert.Equal(t, "2024-01-02T04:04:05Z", out["lastChecked"])
	})
}

func TestProduct_HasTag(t *testing.T) {
	p := Product{Tags: " Tech ,sale,, home office"}

	assert.Equal(t, []string{"Tech", "sale", "home office"}, p.TagList())
	assert.True(t, p.HasTag("tech"))
	assert.True(t, p.HasTag(" SALE "))
	assert.True(t, p.HasTag("home office"))
	assert.False(t, p.HasTag("home"))
	assert.False(t, (&Product{}).HasTag("tech"))
}

func TestUserError_MatchesSentinel(t *testing.T) {
	err := NewUserError(ErrValidation, "Name and URL are required")
	wrapped := errors.Join(errors.New("context"), err)

	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "validation failed: Name and URL are required", err.Error())
}
