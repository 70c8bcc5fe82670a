package formatter

import (
	"fmt"
	"strings"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// plural returns "1 document" or "n documents"
func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	suffix := "s"
	if strings.HasSuffix(noun, "ch") || strings.HasSuffix(noun, "s") {
		suffix = "es"
	}
	return formatNumber(n) + " " + noun + suffix
}

// flatten removes line breaks and truncates to limit runes
func flatten(s string, limit int) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	runes := []rune(s)
	if limit > 3 && len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return s
}
