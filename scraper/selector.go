package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SynthesizeSelector finds the last element in document order whose text
// contains knownPriceText and describes it as tag#id.class1.class2.
// It returns false when nothing on the page contains the text.
func SynthesizeSelector(html, knownPriceText string) (string, bool) {
	knownPriceText = strings.TrimSpace(knownPriceText)
	if knownPriceText == "" {
		return "", false
	}

	doc, err := ParseDocument(html)
	if err != nil {
		return "", false
	}

	target := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), knownPriceText)
	}).Last()
	if target.Length() == 0 {
		return "", false
	}

	return describeElement(target), true
}

func describeElement(s *goquery.Selection) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(goquery.NodeName(s)))

	if id, ok := s.Attr("id"); ok {
		if id = strings.TrimSpace(id); id != "" {
			b.WriteString("#" + id)
		}
	}

	if class, ok := s.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			b.WriteString("." + c)
		}
	}

	return b.String()
}
