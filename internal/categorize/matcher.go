// Package categorize implements the deterministic rule matcher and the
// priority-ordered fallback chain that assigns a category to each
// transaction: explicit rules, then source hints, then LLM inference,
// then the Uncategorized bucket.
package categorize

import (
	"regexp"
	"strings"

	"reckon/internal/models"
)

// MatchRules evaluates rules against searchText and returns the category
// id of the first matching rule, or nil. Rules must arrive ordered by
// priority descending (ties broken by id ascending); searchText is
// expected lowercased.
//
// A pattern containing a backslash or pipe signals regex intent and is
// tried as a case-insensitive regex; a pattern that fails to compile
// degrades to a plain substring test instead of erroring.
func MatchRules(searchText string, rules []models.MerchantRule) *string {
	for i := range rules {
		pattern := strings.ToLower(rules[i].Pattern)

		if strings.ContainsAny(pattern, `\|`) {
			re, err := regexp.Compile("(?i)" + pattern)
			if err == nil {
				if re.MatchString(searchText) {
					return &rules[i].CategoryID
				}
				continue
			}
			// fall through to substring on compile failure
		}

		if strings.Contains(searchText, pattern) {
			return &rules[i].CategoryID
		}
	}
	return nil
}

// SearchText builds the text rules are matched against: the lowercased
// concatenation of merchant name and description, so rules may key on
// either.
func SearchText(merchantName, description string) string {
	return strings.ToLower(merchantName + " " + description)
}
