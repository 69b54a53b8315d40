// classify.go: derived message flags, pure functions of the message text
package staging

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yosefw/medlake-go/internal/conf"
)

var pricePatterns = compilePricePatterns()

func compilePricePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(conf.PricePatterns))
	for _, p := range conf.PricePatterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	return patterns
}

// ContainsMedicalKeywords reports whether the text contains a case-insensitive
// match of at least one term from the medical vocabulary.
func ContainsMedicalKeywords(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range conf.MedicalKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ContainsPriceInfo reports whether the text matches a number adjacent to a
// recognized currency token.
func ContainsPriceInfo(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range pricePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// MessageLength counts characters, not bytes, so Amharic text measures the
// same as Latin text of equal length.
func MessageLength(text string) int {
	return utf8.RuneCountInString(text)
}
