package conf

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricePatternsCompile(t *testing.T) {
	t.Parallel()

	for _, pattern := range PricePatterns {
		_, err := regexp.Compile(pattern)
		require.NoError(t, err, "pattern %q must compile", pattern)
	}
}

func TestCategoryRulesCoverKnownCategories(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, rule := range CategoryRules {
		assert.NotEmpty(t, rule.Substrings)
		assert.NotEqual(t, CategoryDefault, rule.Category, "default category must not appear in the rule table")
		seen[rule.Category] = true
	}

	for _, category := range []string{"cosmetics", "pharmaceuticals", "medical_supplies", "healthcare", "pharmacy"} {
		assert.True(t, seen[category], "expected a rule for category %s", category)
	}
}

func TestSeasonByMonthCoversAllMonths(t *testing.T) {
	t.Parallel()

	for month := 1; month <= 12; month++ {
		assert.Contains(t, SeasonByMonth, month)
	}
}

func TestPriorityListsAreDisjoint(t *testing.T) {
	t.Parallel()

	high := make(map[string]bool, len(HighPriorityChannels))
	for _, name := range HighPriorityChannels {
		high[name] = true
	}
	for _, name := range MediumPriorityChannels {
		assert.False(t, high[name], "channel %s appears in both priority lists", name)
	}
}
