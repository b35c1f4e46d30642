// Package collector implements the mention sources: Reddit search, the YouTube
// Data API, and news RSS feeds. Collectors are deliberately tolerant: missing
// credentials or a failing feed shrink the result set, they never fail a run.
package collector

import (
	"strings"

	"alpine-pulse/config"
)

// attributeResort picks the resort a text is about by scanning search terms,
// defaulting to the first configured resort when nothing matches.
func attributeResort(text string, resorts []config.Resort) string {
	if len(resorts) == 0 {
		return ""
	}
	lower := strings.ToLower(text)
	for _, r := range resorts {
		for _, term := range r.SearchTerms {
			if strings.Contains(lower, strings.ToLower(term)) {
				return r.Key
			}
		}
	}
	return resorts[0].Key
}

// searchTerms returns up to n search terms for a resort, to keep query volume
// within the free-tier rate limits.
func searchTerms(r config.Resort, n int) []string {
	if len(r.SearchTerms) > n {
		return r.SearchTerms[:n]
	}
	return r.SearchTerms
}
