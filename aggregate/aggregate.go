// Package aggregate computes the per-run statistics: overall summary,
// per-resort breakdown, ranked theme stats, and government-related items.
package aggregate

import (
	"math"
	"sort"

	"alpine-pulse/config"
	"alpine-pulse/mention"
)

// Thresholds for re-deriving an aggregate theme sentiment from its mean score.
// This is the only place sentiment is derived from scores; individual mention
// labels come from the classifier and are never recomputed.
const (
	positiveThreshold = 60
	negativeThreshold = 40
)

// maxGovernmentItems caps the government item list.
const maxGovernmentItems = 10

// Summary is the overall rollup for one run.
type Summary struct {
	TotalMentions int `json:"total_mentions"`
	PositivePct   int `json:"positive_pct"`
	NeutralPct    int `json:"neutral_pct"`
	NegativePct   int `json:"negative_pct"`
	NegativeCount int `json:"negative_count"`
}

// ResortStats is the rollup scoped to one resort.
type ResortStats struct {
	Name        string `json:"name"`
	Total       int    `json:"total"`
	PositivePct int    `json:"positive_pct"`
	NeutralPct  int    `json:"neutral_pct"`
	NegativePct int    `json:"negative_pct"`
}

// ThemeStats is the rollup for one theme with at least one mention.
type ThemeStats struct {
	Name      string `json:"name"`
	Mentions  int    `json:"mentions"`
	AvgScore  int    `json:"avg_score"`
	Sentiment string `json:"sentiment"`
}

// Result is the aggregator's complete output.
type Result struct {
	Summary     Summary
	ResortStats map[string]ResortStats
	Themes      []ThemeStats
	Government  []mention.Classified
}

// Build computes all statistics for one classified mention set. An empty set
// produces a valid zero-valued result.
func Build(ms []mention.Classified, resorts []config.Resort, themes []config.Theme) Result {
	pos, neu, neg := countSentiments(ms)
	pPct, nPct, gPct := percentages(pos, neu, len(ms))

	res := Result{
		Summary: Summary{
			TotalMentions: len(ms),
			PositivePct:   pPct,
			NeutralPct:    nPct,
			NegativePct:   gPct,
			NegativeCount: neg,
		},
		ResortStats: make(map[string]ResortStats, len(resorts)),
	}

	for _, r := range resorts {
		var scoped []mention.Classified
		for _, m := range ms {
			if m.Resort == r.Key {
				scoped = append(scoped, m)
			}
		}
		sp, sn, _ := countSentiments(scoped)
		pp, np, gp := percentages(sp, sn, len(scoped))
		res.ResortStats[r.Key] = ResortStats{
			Name:        r.Name,
			Total:       len(scoped),
			PositivePct: pp,
			NeutralPct:  np,
			NegativePct: gp,
		}
	}

	res.Themes = themeStats(ms, themes)
	res.Government = governmentItems(ms, themes)
	return res
}

func countSentiments(ms []mention.Classified) (pos, neu, neg int) {
	for _, m := range ms {
		switch m.Sentiment {
		case mention.SentimentPositive:
			pos++
		case mention.SentimentNegative:
			neg++
		default:
			neu++
		}
	}
	return pos, neu, neg
}

// percentages computes integer percentages that sum to exactly 100 when total
// is nonzero: positive and neutral are rounded independently and negative
// absorbs the remainder, clamped at 0. A zero total reports 0/0/0.
func percentages(pos, neu, total int) (posPct, neuPct, negPct int) {
	if total == 0 {
		return 0, 0, 0
	}
	denom := float64(max(total, 1))
	posPct = int(math.Round(float64(pos) / denom * 100))
	neuPct = int(math.Round(float64(neu) / denom * 100))
	negPct = max(100-posPct-neuPct, 0)
	return posPct, neuPct, negPct
}

// themeStats computes mean-score stats per configured theme and ranks them by
// mention count descending. Building in taxonomy order and sorting stably
// makes the taxonomy order the tie-break.
func themeStats(ms []mention.Classified, themes []config.Theme) []ThemeStats {
	var stats []ThemeStats
	for _, t := range themes {
		count, sum := 0, 0
		for _, m := range ms {
			if m.Theme == t.Name {
				count++
				sum += m.Score
			}
		}
		if count == 0 {
			continue
		}
		avg := int(math.Round(float64(sum) / float64(count)))
		stats = append(stats, ThemeStats{
			Name:      t.Name,
			Mentions:  count,
			AvgScore:  avg,
			Sentiment: themeSentiment(avg),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Mentions > stats[j].Mentions
	})
	return stats
}

func themeSentiment(avg int) string {
	switch {
	case avg >= positiveThreshold:
		return mention.SentimentPositive
	case avg <= negativeThreshold:
		return mention.SentimentNegative
	default:
		return mention.SentimentNeutral
	}
}

// governmentItems selects mentions flagged government-related or classified
// into a government theme, most recent first, capped at 10.
func governmentItems(ms []mention.Classified, themes []config.Theme) []mention.Classified {
	govThemes := make(map[string]bool)
	for _, t := range themes {
		if t.Government {
			govThemes[t.Name] = true
		}
	}

	var items []mention.Classified
	for _, m := range ms {
		if m.GovernmentRelated || govThemes[m.Theme] {
			items = append(items, m)
		}
	}

	items = mention.MostRecentFirst(items)
	if len(items) > maxGovernmentItems {
		items = items[:maxGovernmentItems]
	}
	return items
}
