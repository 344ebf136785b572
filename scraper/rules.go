package scraper

import (
	"regexp"

	"pricetrack/models"
)

// PriceRule is one pattern of the extraction rule engine
type PriceRule interface {
	Name() string
	TryMatch(text string) (models.PriceData, bool)
}

// regexRule matches the first occurrence of a pattern whose first capture
// group is the amount, and tags the result with a fixed currency
type regexRule struct {
	name     string
	re       *regexp.Regexp
	currency string
}

// NewRegexRule builds a rule from a pattern whose first group captures the amount
func NewRegexRule(name, pattern, currency string) (PriceRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexRule{name: name, re: re, currency: currency}, nil
}

func mustRegexRule(name, pattern, currency string) PriceRule {
	rule, err := NewRegexRule(name, pattern, currency)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *regexRule) Name() string {
	return r.name
}

// TryMatch only looks at the first match. An invalid or non-positive amount
// fails the rule; it does not move on to later matches of the same pattern.
func (r *regexRule) TryMatch(text string) (models.PriceData, bool) {
	matches := r.re.FindStringSubmatch(text)
	if len(matches) < 2 || matches[1] == "" {
		return models.PriceData{}, false
	}

	amount, err := ParseAmount(matches[1])
	if err != nil {
		return models.PriceData{}, false
	}

	return models.PriceData{
		Price:    amount,
		Currency: r.currency,
		Rule:     r.name,
	}, true
}

// spacePattern also accepts the no-break space common in formatted prices
const spacePattern = `[\s\x{00A0}]`

// DefaultRules returns the fixed-priority rule list. dollarCurrency is the code
// assigned to "$" prices; existing deployments record them as BRL.
func DefaultRules(dollarCurrency string) []PriceRule {
	if dollarCurrency == "" {
		dollarCurrency = models.DefaultCurrency
	}

	return []PriceRule{
		mustRegexRule("dollar_symbol", `\$`+numberPattern, dollarCurrency),
		mustRegexRule("euro_symbol", `€`+numberPattern, "EUR"),
		mustRegexRule("pound_symbol", `£`+numberPattern, "GBP"),
		mustRegexRule("brl_suffix", `(?i)`+numberPattern+spacePattern+`*BRL`, "BRL"),
		mustRegexRule("price_label", `(?i)price[:\s\x{00A0}]+`+numberPattern, "BRL"),
		mustRegexRule("json_price", `(?i)"price"`+spacePattern+`*:`+spacePattern+`*"?`+numberPattern, "BRL"),
	}
}
