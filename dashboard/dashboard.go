// Package dashboard assembles the per-run output document consumed by the
// static dashboard and the briefing renderers. The document is fully
// regenerated every run, never patched.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"alpine-pulse/aggregate"
	"alpine-pulse/history"
	"alpine-pulse/mention"
)

// maxFeedTextLen caps feed item text in the output document.
const maxFeedTextLen = 300

// FeedItem is one entry of the recent-activity feed.
type FeedItem struct {
	Source     string `json:"source"`
	Resort     string `json:"resort"`
	Sentiment  string `json:"sentiment"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	Engagement string `json:"engagement"`
	Theme      string `json:"theme"`
	Takeaway   string `json:"takeaway"`
	URL        string `json:"url"`
}

// Output is the complete dashboard document for one run.
type Output struct {
	GeneratedAt string                           `json:"generated_at"`
	Date        string                           `json:"date"`
	Summary     aggregate.Summary                `json:"summary"`
	ResortStats map[string]aggregate.ResortStats `json:"resort_stats"`
	Themes      []aggregate.ThemeStats           `json:"themes"`
	Government  []FeedItem                       `json:"government"`
	Trends      history.Trends                   `json:"trends"`
	ThemeTrends map[string][]int                 `json:"theme_trends"`
	Feed        []FeedItem                       `json:"feed"`
}

// BuildConfig carries the window and cap settings for output assembly.
type BuildConfig struct {
	TrendWindow     int
	ThemeTrendCount int
	FeedLimit       int
}

// Build assembles the output from the aggregator's result and the updated
// history. An empty mention set yields a valid zero-valued document.
func Build(now time.Time, agg aggregate.Result, hist history.History, analyzed []mention.Classified, cfg BuildConfig) Output {
	topThemes := make([]string, 0, cfg.ThemeTrendCount)
	for i, t := range agg.Themes {
		if i >= cfg.ThemeTrendCount {
			break
		}
		topThemes = append(topThemes, t.Name)
	}

	return Output{
		GeneratedAt: now.Format(time.RFC3339),
		Date:        now.Format("2006-01-02"),
		Summary:     agg.Summary,
		ResortStats: agg.ResortStats,
		Themes:      agg.Themes,
		Government:  feedItems(agg.Government, len(agg.Government)),
		Trends:      hist.Trends(cfg.TrendWindow),
		ThemeTrends: hist.ThemeTrends(topThemes, cfg.TrendWindow),
		Feed:        feedItems(mention.MostRecentFirst(analyzed), cfg.FeedLimit),
	}
}

// feedItems converts classified mentions to feed entries, preserving order and
// truncating text. Callers pass mentions already sorted most-recent-first.
func feedItems(ms []mention.Classified, limit int) []FeedItem {
	if limit < len(ms) {
		ms = ms[:limit]
	}
	items := make([]FeedItem, 0, len(ms))
	for _, m := range ms {
		items = append(items, FeedItem{
			Source:     m.Source,
			Resort:     m.Resort,
			Sentiment:  m.Sentiment,
			Text:       mention.Truncate(m.Text, maxFeedTextLen),
			Timestamp:  m.Timestamp,
			Engagement: m.Engagement,
			Theme:      m.Theme,
			Takeaway:   m.Takeaway,
			URL:        m.URL,
		})
	}
	return items
}

// Write persists the output as JSON, atomically (write-to-temp-then-rename).
func Write(path string, o Output) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dashboard: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dashboard dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing dashboard temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing dashboard file: %w", err)
	}
	return nil
}
