package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeSelector(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "deepest element with classes",
			html:   `<html><body><div id="main" class="product card"><span class="price big">R$ 49,90</span></div></body></html>`,
			text:   "49,90",
			want:   "span.price.big",
			wantOK: true,
		},
		{
			name:   "last match in document order",
			html:   `<p>49.90</p><section><b id="current">49.90</b></section>`,
			text:   "49.90",
			want:   "b#current",
			wantOK: true,
		},
		{
			name:   "id and messy class attribute",
			html:   `<strong id="p1" class="  a   b ">12.00</strong>`,
			text:   "12.00",
			want:   "strong#p1.a.b",
			wantOK: true,
		},
		{
			name:   "bare tag",
			html:   `<div><em>7.5</em></div>`,
			text:   "7.5",
			want:   "em",
			wantOK: true,
		},
		{
			name:   "text not on page",
			html:   `<p>19.99</p>`,
			text:   "25.00",
			wantOK: false,
		},
		{
			name:   "empty text",
			html:   `<p>19.99</p>`,
			text:   "  ",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SynthesizeSelector(tt.html, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthesizedSelectorScopesExtraction(t *testing.T) {
	html := `<html><body><p>Was $80.00</p><span class="price now">$59.90</span></body></html>`

	selector, ok := SynthesizeSelector(html, "59.90")
	assert.True(t, ok)
	assert.Equal(t, "span.price.now", selector)

	data, ok := NewExtractor().ExtractScoped(html, selector)
	assert.True(t, ok)
	assert.InDelta(t, 59.90, data.Price, 1e-9)
	assert.True(t, data.Scoped)
}
