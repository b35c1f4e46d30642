// Package history maintains the day-keyed rolling snapshot store and derives
// the trend series rendered by the dashboard.
package history

import (
	"github.com/araddon/dateparse"
)

// Snapshot is one calendar day's rollup.
type Snapshot struct {
	Date        string         `json:"date"`
	Total       int            `json:"total"`
	PositivePct int            `json:"positive_pct"`
	NeutralPct  int            `json:"neutral_pct"`
	NegativePct int            `json:"negative_pct"`
	Themes      map[string]int `json:"themes"`
}

// History is the ordered sequence of retained daily snapshots.
type History struct {
	Daily []Snapshot `json:"daily"`
}

// Trends holds parallel percentage series over the trend window.
type Trends struct {
	Labels   []string `json:"labels"`
	Positive []int    `json:"positive"`
	Neutral  []int    `json:"neutral"`
	Negative []int    `json:"negative"`
}

// Upsert returns a History with s inserted: any existing snapshot for the same
// date is removed first, so re-running a day replaces rather than duplicates
// its entry. The store is then capped to the most recent maxEntries, oldest
// dropped first.
func (h History) Upsert(s Snapshot, maxEntries int) History {
	daily := make([]Snapshot, 0, len(h.Daily)+1)
	for _, d := range h.Daily {
		if d.Date != s.Date {
			daily = append(daily, d)
		}
	}
	daily = append(daily, s)

	if maxEntries > 0 && len(daily) > maxEntries {
		daily = daily[len(daily)-maxEntries:]
	}
	return History{Daily: daily}
}

// Window returns the most recent n snapshots in order.
func (h History) Window(n int) []Snapshot {
	if n <= 0 || len(h.Daily) <= n {
		return h.Daily
	}
	return h.Daily[len(h.Daily)-n:]
}

// Trends builds the percentage series over the last window snapshots.
func (h History) Trends(window int) Trends {
	recent := h.Window(window)
	t := Trends{
		Labels:   make([]string, 0, len(recent)),
		Positive: make([]int, 0, len(recent)),
		Neutral:  make([]int, 0, len(recent)),
		Negative: make([]int, 0, len(recent)),
	}
	for _, d := range recent {
		t.Labels = append(t.Labels, shortLabel(d.Date))
		t.Positive = append(t.Positive, d.PositivePct)
		t.Neutral = append(t.Neutral, d.NeutralPct)
		t.Negative = append(t.Negative, d.NegativePct)
	}
	return t
}

// ThemeTrends returns, for each named theme, its stored count across the last
// window snapshots; days where the theme is absent contribute 0.
func (h History) ThemeTrends(themes []string, window int) map[string][]int {
	recent := h.Window(window)
	out := make(map[string][]int, len(themes))
	for _, name := range themes {
		series := make([]int, 0, len(recent))
		for _, d := range recent {
			series = append(series, d.Themes[name])
		}
		out[name] = series
	}
	return out
}

// shortLabel renders a chart-friendly label for a date key, falling back to a
// raw fragment of the key when it does not parse.
func shortLabel(date string) string {
	if t, err := dateparse.ParseAny(date); err == nil {
		return t.Format("Jan 2")
	}
	if len(date) >= 10 {
		return date[5:10]
	}
	return date
}
