package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		found    bool
		price    float64
		currency string
		rule     string
	}{
		{"dollar symbol", `<p>Price: $19.99</p>`, true, 19.99, "BRL", "dollar_symbol"},
		{"thousands separator", `<span>$1,234.56</span>`, true, 1234.56, "BRL", "dollar_symbol"},
		{"euro", `<span>€20</span>`, true, 20, "EUR", "euro_symbol"},
		{"pound", `<span>£7.5</span>`, true, 7.5, "GBP", "pound_symbol"},
		{"brl suffix case insensitive", `<span>149.90 brl</span>`, true, 149.90, "BRL", "brl_suffix"},
		{"price label", `<div>Price:   89</div>`, true, 89, "BRL", "price_label"},
		{"json price", `<script>{"price": "49.90"}</script>`, true, 49.90, "BRL", "json_price"},
		{"json price unquoted", `<script>{"PRICE":12.5}</script>`, true, 12.5, "BRL", "json_price"},
		{"brl suffix after no-break space", "<span>49.90\u00a0BRL</span>", true, 49.90, "BRL", "brl_suffix"},
		{"price label with no-break space", "<div>price:\u00a0 12</div>", true, 12, "BRL", "price_label"},
		{"json price with no-break space", "<script>{\"price\":\u00a0\"5.5\"}</script>", true, 5.5, "BRL", "json_price"},
		{"dollar beats euro regardless of order", `<p>€20</p><p>$10</p>`, true, 10, "BRL", "dollar_symbol"},
		{"zero falls through to next rule", `<p>$0.00</p><p>€5</p>`, true, 5, "EUR", "euro_symbol"},
		{"separators only falls through", `<p>$,,</p><p>£3</p>`, true, 3, "GBP", "pound_symbol"},
		{"only first match of a rule is considered", `<p>$0</p><p>$5</p>`, false, 0, "", ""},
		{"zero only", `<p>$0.00</p>`, false, 0, "", ""},
		{"no price", `<html><body>Out of stock</body></html>`, false, 0, "", ""},
		{"empty", ``, false, 0, "", ""},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ok := extractor.Extract(tt.html)
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				assert.Nil(t, data)
				return
			}
			require.NotNil(t, data)
			assert.InDelta(t, tt.price, data.Price, 1e-9)
			assert.Equal(t, tt.currency, data.Currency)
			assert.Equal(t, tt.rule, data.Rule)
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	extractor := NewExtractor()
	html := `<p>Price: $19.99</p>`

	first, ok := extractor.Extract(html)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := extractor.Extract(html)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestExtract_DollarCurrency(t *testing.T) {
	extractor := NewExtractor(DefaultRules("USD")...)

	data, ok := extractor.Extract(`Price: $19.99`)

	require.True(t, ok)
	assert.Equal(t, "USD", data.Currency)
	assert.InDelta(t, 19.99, data.Price, 1e-9)
}

func TestExtractor_Rules(t *testing.T) {
	assert.Equal(t, []string{
		"dollar_symbol", "euro_symbol", "pound_symbol", "brl_suffix", "price_label", "json_price",
	}, NewExtractor().Rules())
}

func TestExtractScoped(t *testing.T) {
	html := `<html><body>
		<div class="old">$99.00</div>
		<span class="price">€49.90</span>
	</body></html>`
	extractor := NewExtractor()

	t.Run("selector hit", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(html, "span.price")
		require.True(t, ok)
		assert.InDelta(t, 49.90, data.Price, 1e-9)
		assert.Equal(t, "EUR", data.Currency)
		assert.True(t, data.Scoped)
	})

	t.Run("selector miss falls back to page", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(html, "div.missing")
		require.True(t, ok)
		assert.InDelta(t, 99.0, data.Price, 1e-9)
		assert.False(t, data.Scoped)
	})

	t.Run("invalid selector falls back to page", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(html, "span[[[")
		require.True(t, ok)
		assert.InDelta(t, 99.0, data.Price, 1e-9)
	})

	t.Run("empty selector", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(html, "")
		require.True(t, ok)
		assert.InDelta(t, 99.0, data.Price, 1e-9)
	})

	t.Run("attributes of matched nodes are ignored", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(`<span class="price" data-old="$99">€5</span>`, "span.price")
		require.True(t, ok)
		assert.InDelta(t, 5.0, data.Price, 1e-9)
		assert.Equal(t, "EUR", data.Currency)
		assert.True(t, data.Scoped)
	})

	t.Run("scope without price falls back to page", func(t *testing.T) {
		data, ok := extractor.ExtractScoped(`<b>no price</b><i>£2</i>`, "b")
		require.True(t, ok)
		assert.Equal(t, "GBP", data.Currency)
		assert.False(t, data.Scoped)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"19.99", 19.99, false},
		{"1,234.56", 1234.56, false},
		{"1,000,000", 1000000, false},
		{"12.", 12, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{",", 0, true},
		{"", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"-Infinity", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
