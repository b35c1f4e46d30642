// Package classifier implements the deterministic keyword classifier used when
// the annotation service is unavailable or returns an unusable response. It is
// pure: same text in, same sentiment, score, and theme out.
package classifier

import (
	"strings"

	"alpine-pulse/config"
	"alpine-pulse/mention"
)

// DefaultTheme is assigned when no theme keywords match.
const DefaultTheme = "Snow Conditions"

// MaxTakeawayLen caps the takeaway, which is just the leading text.
const MaxTakeawayLen = 120

var positiveWords = []string{
	"great", "amazing", "love", "best", "incredible", "awesome", "excellent",
	"fantastic", "perfect", "beautiful", "pristine", "fresh", "powder",
	"recommend", "friendly", "patient",
}

var negativeWords = []string{
	"bad", "terrible", "worst", "wait", "crowded", "overpriced", "expensive",
	"broken", "closed", "dangerous", "icy", "rough", "complained", "poor",
	"rude", "slow",
}

// Classify assigns sentiment, score, theme, and takeaway from keyword scans
// alone. Scores from this path are always within [5, 95].
func Classify(m mention.Mention, themes []config.Theme) mention.Classified {
	lower := strings.ToLower(m.Text)

	sentiment, score := scoreSentiment(lower)

	return m.WithClassification(mention.Classification{
		Sentiment: sentiment,
		Score:     score,
		Theme:     matchTheme(lower, themes),
		Takeaway:  mention.Truncate(m.Text, MaxTakeawayLen),
	})
}

func scoreSentiment(lower string) (string, int) {
	pos := countMatches(lower, positiveWords)
	neg := countMatches(lower, negativeWords)

	switch {
	case pos > neg:
		return mention.SentimentPositive, min(50+pos*12, 95)
	case neg > pos:
		return mention.SentimentNegative, max(50-neg*12, 5)
	default:
		return mention.SentimentNeutral, 50
	}
}

func countMatches(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

// matchTheme scans the ordered taxonomy and returns the first theme with a
// keyword hit. The order is the tie-break: overlapping keyword sets are
// resolved by whichever theme comes first.
func matchTheme(lower string, themes []config.Theme) string {
	for _, t := range themes {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Name
			}
		}
	}
	return DefaultTheme
}
