package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"alpine-pulse/aggregate"
	"alpine-pulse/config"
	"alpine-pulse/history"
	"alpine-pulse/mention"
)

var testCfg = BuildConfig{TrendWindow: 7, ThemeTrendCount: 4, FeedLimit: 30}

func classified(id, ts, text string) mention.Classified {
	return mention.Classified{
		Mention:        mention.Mention{ID: id, Timestamp: ts, Text: text},
		Classification: mention.Classification{Sentiment: mention.SentimentNeutral, Score: 50, Theme: "Snow Conditions"},
	}
}

func TestBuild_EmptyRunIsValid(t *testing.T) {
	now := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	agg := aggregate.Build(nil, config.DefaultResorts(), config.DefaultThemes())
	hist := history.History{}.Upsert(history.Snapshot{Date: "2026-01-12"}, 30)

	out := Build(now, agg, hist, nil, testCfg)

	if out.Date != "2026-01-12" {
		t.Errorf("date = %s, want 2026-01-12", out.Date)
	}
	if out.Summary.TotalMentions != 0 {
		t.Errorf("total = %d, want 0", out.Summary.TotalMentions)
	}
	if len(out.Feed) != 0 || len(out.Government) != 0 {
		t.Errorf("empty run should produce empty feed and government lists")
	}
	if len(out.Trends.Labels) != 1 {
		t.Errorf("trend labels = %d, want 1 (today's zero snapshot)", len(out.Trends.Labels))
	}
}

func TestBuild_FeedOrderedAndCapped(t *testing.T) {
	now := time.Now()
	var ms []mention.Classified
	for i := 0; i < 40; i++ {
		ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format(time.RFC3339)
		ms = append(ms, classified(string(rune('a'+i)), ts, "text"))
	}

	agg := aggregate.Build(ms, config.DefaultResorts(), config.DefaultThemes())
	out := Build(now, agg, history.History{}, ms, testCfg)

	if len(out.Feed) != testCfg.FeedLimit {
		t.Fatalf("feed length = %d, want %d", len(out.Feed), testCfg.FeedLimit)
	}
	// Newest item is the one with the latest date.
	first, _ := time.Parse(time.RFC3339, out.Feed[0].Timestamp)
	second, _ := time.Parse(time.RFC3339, out.Feed[1].Timestamp)
	if !first.After(second) {
		t.Errorf("feed not ordered newest first: %s then %s", out.Feed[0].Timestamp, out.Feed[1].Timestamp)
	}
}

func TestBuild_FeedTextTruncated(t *testing.T) {
	long := strings.Repeat("x", maxFeedTextLen+100)
	ms := []mention.Classified{classified("a", "", long)}

	agg := aggregate.Build(ms, config.DefaultResorts(), config.DefaultThemes())
	out := Build(time.Now(), agg, history.History{}, ms, testCfg)

	if len(out.Feed[0].Text) != maxFeedTextLen {
		t.Errorf("feed text length = %d, want %d", len(out.Feed[0].Text), maxFeedTextLen)
	}
}

func TestBuild_ThemeTrendsTopThemesOnly(t *testing.T) {
	var ms []mention.Classified
	themes := []string{"Snow Conditions", "Pricing & Value", "Lift Wait Times", "Staff & Service", "Summer Activities"}
	for i, name := range themes {
		for j := 0; j <= i; j++ {
			m := classified(name+string(rune('0'+j)), "", "text")
			m.Theme = name
			ms = append(ms, m)
		}
	}

	agg := aggregate.Build(ms, config.DefaultResorts(), config.DefaultThemes())
	hist := history.History{}.Upsert(history.Snapshot{Date: "2026-01-12", Themes: map[string]int{"Summer Activities": 5}}, 30)
	out := Build(time.Now(), agg, hist, ms, testCfg)

	if len(out.ThemeTrends) != testCfg.ThemeTrendCount {
		t.Fatalf("theme trends = %d themes, want %d", len(out.ThemeTrends), testCfg.ThemeTrendCount)
	}
	// Summer Activities has the most mentions, so it must be tracked.
	if _, ok := out.ThemeTrends["Summer Activities"]; !ok {
		t.Error("top theme missing from theme trends")
	}
}

func TestWrite_RoundTripAndAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dashboard.json")
	out := Output{Date: "2026-01-12", Summary: aggregate.Summary{TotalMentions: 3}}

	if err := Write(path, out); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Output
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("written file not valid JSON: %v", err)
	}
	if got.Date != "2026-01-12" || got.Summary.TotalMentions != 3 {
		t.Errorf("round trip lost data: %+v", got)
	}
}
