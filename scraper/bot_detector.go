package scraper

import (
	"regexp"
	"strings"
)

// BotDetector detects bot walls and CAPTCHAs in fetched pages
type BotDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		botPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)unusual traffic`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)verify you are (a )?human`),
			regexp.MustCompile(`(?i)cf-challenge`),
		},
	}
}

// DetectBotWall scores the page and returns a human-readable reason when it
// looks like a block page rather than a product page
func (bd *BotDetector) DetectBotWall(html string) (bool, string) {
	score := 0
	var reasons []string

	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(html) {
			score += 5
			reasons = append(reasons, "captcha: "+describePattern(pattern))
		}
	}

	for _, pattern := range bd.botPatterns {
		if pattern.MatchString(html) {
			score += 3
			reasons = append(reasons, describePattern(pattern))
		}
	}

	// Block pages are short
	if len(html) < 5000 && score > 0 {
		score += 2
	}

	if score < 5 {
		return false, ""
	}
	return true, strings.Join(reasons, "; ")
}

func describePattern(re *regexp.Regexp) string {
	return strings.TrimPrefix(re.String(), "(?i)")
}
