// Package mention defines the canonical mention record shared by collectors,
// the classifiers, and the aggregation layer.
package mention

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Sentiment labels assigned by the classifiers.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// MaxTextLen is the cap applied to mention text at ingestion.
const MaxTextLen = 500

// Mention is one observed reference to a resort from any source. It is
// immutable once produced: classification decorates it into a Classified
// value rather than mutating it.
type Mention struct {
	ID                string `json:"id"`
	Source            string `json:"source"`
	Resort            string `json:"resort"`
	Text              string `json:"text"`
	URL               string `json:"url"`
	Timestamp         string `json:"timestamp"`
	Engagement        string `json:"engagement"`
	Author            string `json:"author"`
	GovernmentRelated bool   `json:"is_government_related"`
}

// Classification is the sentiment/theme tuple assigned to a mention.
type Classification struct {
	Sentiment string `json:"sentiment"`
	Score     int    `json:"sentiment_score"`
	Theme     string `json:"theme"`
	Takeaway  string `json:"takeaway"`
}

// Classified is a Mention decorated with its Classification.
type Classified struct {
	Mention
	Classification
}

// WithClassification returns a new Classified value; the receiver is unchanged.
func (m Mention) WithClassification(c Classification) Classified {
	return Classified{Mention: m, Classification: c}
}

// MakeID derives the stable short id from the most specific natural key a
// collector has (source id, else URL, else title). Identical keys always
// produce identical ids across runs.
func MakeID(naturalKey string) string {
	sum := md5.Sum([]byte(naturalKey))
	return hex.EncodeToString(sum[:])[:12]
}

// govKeywords flag mentions that touch provincial or regulatory matters,
// independently of theme classification.
var govKeywords = []string{
	"government",
	"provincial",
	"minister",
	"alberta parks",
	"kananaskis pass",
	"crown land",
	"legislation",
	"policy",
	"funding",
}

// IsGovernmentRelated reports whether the text matches the government keyword
// scan (case-insensitive substring match).
func IsGovernmentRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range govKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Sanitize normalizes a collector-produced mention: trims and caps the text,
// fills the government flag, and defaults the source label. Collectors are
// external; every record passes through here at ingestion.
func Sanitize(m Mention) Mention {
	m.Text = strings.TrimSpace(m.Text)
	if len(m.Text) > MaxTextLen {
		m.Text = m.Text[:MaxTextLen]
	}
	if m.Source == "" {
		m.Source = "News"
	}
	m.GovernmentRelated = IsGovernmentRelated(m.Text)
	return m
}

// Dedupe returns the subset of mentions with unique ids, preserving first-seen
// order. O(n), no side effects.
func Dedupe(ms []Mention) []Mention {
	seen := make(map[string]struct{}, len(ms))
	out := make([]Mention, 0, len(ms))
	for _, m := range ms {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Truncate shortens s to at most n bytes.
func Truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
