package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is used whenever a currency is unknown or unspecified
const DefaultCurrency = "BRL"

// IsPositivePrice reports whether v is a finite amount greater than zero
func IsPositivePrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Product represents a page being monitored for price changes
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	URL           string    `json:"url" db:"url"`
	Website       string    `json:"website" db:"website"`
	Tags          string    `json:"tags" db:"tags"`
	PriceSelector string    `json:"priceSelector" db:"price_selector"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// TagList splits the comma-separated tags into trimmed, non-empty labels
func (p *Product) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasTag reports whether the product carries the given tag (case-insensitive)
func (p *Product) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range p.TagList() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// PriceHistory is one immutable price observation for a product
type PriceHistory struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"-" db:"product_id"`
	Price     float64   `json:"price" db:"price"`
	Currency  string    `json:"currency" db:"currency"`
	CheckedAt time.Time `json:"checkedAt" db:"checked_at"`
}

// ProductSummary is a product with its most recent observation inlined
type ProductSummary struct {
	Product
	Latest *PriceHistory `json:"-"`
}

// MarshalJSON flattens the latest observation into currentPrice/currency/lastChecked
func (s ProductSummary) MarshalJSON() ([]byte, error) {
	out := struct {
		ID           string     `json:"id"`
		Name         string     `json:"name"`
		URL          string     `json:"url"`
		Website      string     `json:"website"`
		Tags         string     `json:"tags"`
		CreatedAt    time.Time  `json:"createdAt"`
		CurrentPrice *float64   `json:"currentPrice"`
		Currency     string     `json:"currency"`
		LastChecked  *time.Time `json:"lastChecked"`
	}{
		ID:        s.ID,
		Name:      s.Name,
		URL:       s.URL,
		Website:   s.Website,
		Tags:      s.Tags,
		CreatedAt: s.CreatedAt,
		Currency:  DefaultCurrency,
	}
	if s.Latest != nil {
		price := s.Latest.Price
		checked := s.Latest.CheckedAt
		out.CurrentPrice = &price
		out.LastChecked = &checked
		if s.Latest.Currency != "" {
			out.Currency = s.Latest.Currency
		}
	}
	return json.Marshal(out)
}

// PriceData represents extracted price information
type PriceData struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Rule     string  `json:"rule,omitempty"`  // name of the rule that matched
	Scoped   bool    `json:"scoped,omitempty"` // matched inside the stored selector
}

// CreateProductRequest represents the request to register a product
type CreateProductRequest struct {
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Tag          string     `json:"tag"`
	CurrentPrice *SeedPrice `json:"currentPrice"`
}

// SeedPrice is the optional starting price supplied at creation. Clients send
// it either as a JSON number or as a string; Text keeps what was typed so the
// selector synthesizer can look for the literal on the page.
type SeedPrice struct {
	Text  string
	Value float64
}

// UnmarshalJSON accepts 49.9, "49.90" and null
func (p *SeedPrice) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	p.Text = raw
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return fmt.Errorf("currentPrice %q is not a number", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("currentPrice %q is not a finite number", raw)
	}
	p.Value = value
	return nil
}

// IsSet reports whether a seed price was supplied
func (p *SeedPrice) IsSet() bool {
	return p != nil && p.Text != ""
}
