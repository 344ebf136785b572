package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBotWall(t *testing.T) {
	detector := NewBotDetector()

	t.Run("captcha page", func(t *testing.T) {
		blocked, reason := detector.DetectBotWall(`<html><title>Attention</title><body>Please verify you are a human. <div class="g-recaptcha"></div></body></html>`)
		assert.True(t, blocked)
		assert.Contains(t, reason, "captcha")
	})

	t.Run("short access denied page", func(t *testing.T) {
		blocked, _ := detector.DetectBotWall(`<h1>Access Denied</h1>`)
		assert.True(t, blocked)
	})

	t.Run("product page", func(t *testing.T) {
		blocked, reason := detector.DetectBotWall(`<html><body><h1>Coffee grinder</h1><span class="price">$49.90</span></body></html>`)
		assert.False(t, blocked)
		assert.Empty(t, reason)
	})

	t.Run("long page with a passing mention", func(t *testing.T) {
		page := `<p>Access denied errors are covered in our FAQ.</p>` + strings.Repeat("<p>filler</p>", 1000)
		blocked, _ := detector.DetectBotWall(page)
		assert.False(t, blocked)
	})
}
