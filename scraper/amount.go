package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"pricetrack/models"
)

// numberPattern matches digit groups with comma thousands separators and an
// optional fraction of up to two digits, e.g. 1,234.56
const numberPattern = `([0-9,]+\.?[0-9]{0,2})`

// ParseAmount strips thousands separators and parses the result. Only finite
// values strictly greater than zero are accepted.
func ParseAmount(text string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount in %q", text)
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", text, err)
	}

	if !models.IsPositivePrice(value) {
		return 0, fmt.Errorf("amount %q is not positive", text)
	}

	return value, nil
}
