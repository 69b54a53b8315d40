// rules.go: data-driven classification rule tables for the transformation passes.
// Rules are evaluated in order with first match winning, so the tables stay
// testable and extensible without touching the surrounding code.
package conf

// CategoryRule maps channel name substrings to a channel category.
type CategoryRule struct {
	Substrings []string // matched case-insensitively against the channel name
	Category   string
}

// CategoryDefault is assigned when no category rule matches.
const CategoryDefault = "general"

// CategoryRules is evaluated in order with first match winning.
var CategoryRules = []CategoryRule{
	{Substrings: []string{"cosmetic", "beauty", "skincare"}, Category: "cosmetics"},
	{Substrings: []string{"pharma", "medicine", "drug"}, Category: "pharmaceuticals"},
	{Substrings: []string{"chemed", "medical_supplies", "supplies"}, Category: "medical_supplies"},
	{Substrings: []string{"health", "healthcare", "medical"}, Category: "healthcare"},
	{Substrings: []string{"pharmacy"}, Category: "pharmacy"},
}

// Priority levels assigned to channels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// HighPriorityChannels lists channels scraped and classified with high priority.
var HighPriorityChannels = []string{
	"lobelia4cosmetics",
	"tikvahpharma",
	"chemed_ethiopia",
}

// MediumPriorityChannels lists channels classified with medium priority.
var MediumPriorityChannels = []string{
	"ethiopian_pharmacy",
	"medical_supplies_ethiopia",
	"healthcare_ethiopia",
	"pharmaceutical_ethiopia",
	"ethiopian_pharmaceuticals",
	"medical_ethiopia",
	"pharmacy_ethiopia",
}

// MedicalKeywords is the fixed vocabulary used for the
// contains_medical_keywords message flag. Matching is case-insensitive.
var MedicalKeywords = []string{
	"antibiotic",
	"painkiller",
	"tablet",
	"capsule",
	"syrup",
	"injection",
	"vaccine",
	"medicine",
	"pharmaceutical",
	"syringe",
	"bandage",
	"thermometer",
	"sanitizer",
	"cream",
	"lotion",
	"cosmetic",
	"skincare",
	// Amharic transliterations commonly seen in the source channels
	"medhanit",
	"tibeb",
}

// PricePatterns are regular expressions for the contains_price_info flag.
// Each matches a number adjacent to a recognized currency token.
var PricePatterns = []string{
	`(?i)\d+\s*(?:birr|etb|ብር)`,
	`(?i)(?:birr|etb|ብር)\s*\d+`,
	`(?i)\d+\s*(?:dollar|usd)`,
	`\$\s*\d+`,
	`(?i)\d+\s*(?:euro|eur)`,
	`€\s*\d+`,
	`(?i)(?:price|cost)[:\s]\s*\d+`,
}

// Seasons used by the calendar dimension, fixed northern-hemisphere mapping.
var SeasonByMonth = map[int]string{
	12: "Winter", 1: "Winter", 2: "Winter",
	3: "Spring", 4: "Spring", 5: "Spring",
	6: "Summer", 7: "Summer", 8: "Summer",
	9: "Autumn", 10: "Autumn", 11: "Autumn",
}
