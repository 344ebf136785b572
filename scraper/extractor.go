package scraper

import (
	"log"
	"strings"

	"pricetrack/models"

	"github.com/PuerkitoBio/goquery"
)

// Extractor applies an ordered list of price rules; the first rule producing
// a valid positive price wins
type Extractor struct {
	rules []PriceRule
}

// NewExtractor creates an extractor. With no rules it uses DefaultRules.
func NewExtractor(rules ...PriceRule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules(models.DefaultCurrency)
	}
	return &Extractor{rules: rules}
}

// Rules returns the rule names in evaluation order
func (e *Extractor) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, rule := range e.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Extract runs the rules over the whole text
func (e *Extractor) Extract(text string) (*models.PriceData, bool) {
	for _, rule := range e.rules {
		if data, ok := rule.TryMatch(text); ok {
			return &data, true
		}
	}
	return nil, false
}

// ExtractScoped runs the rules over the nodes matched by selector first and
// falls back to the whole document when the selector misses or its nodes
// hold no price
func (e *Extractor) ExtractScoped(html, selector string) (*models.PriceData, bool) {
	if selector = strings.TrimSpace(selector); selector != "" {
		if scope, ok := selectorScope(html, selector); ok {
			if data, ok := e.Extract(scope); ok {
				data.Scoped = true
				return data, true
			}
		}
		log.Printf("Selector %q yielded no price, searching whole page", selector)
	}
	return e.Extract(html)
}

// selectorScope returns the text of every node matching selector
func selectorScope(html, selector string) (string, bool) {
	doc, err := ParseDocument(html)
	if err != nil {
		return "", false
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", false
	}

	var b strings.Builder
	selection.Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})
	return b.String(), true
}
