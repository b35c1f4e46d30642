package briefing

import (
	"strings"
	"testing"

	"alpine-pulse/aggregate"
	"alpine-pulse/dashboard"
)

func sampleOutput() dashboard.Output {
	return dashboard.Output{
		Date: "2026-01-12",
		Summary: aggregate.Summary{
			TotalMentions: 42,
			PositivePct:   55,
			NeutralPct:    30,
			NegativePct:   15,
		},
		ResortStats: map[string]aggregate.ResortStats{
			"fortress": {Name: "Fortress Mountain", Total: 20, PositivePct: 60, NeutralPct: 25, NegativePct: 15},
		},
		Themes: []aggregate.ThemeStats{
			{Name: "Snow Conditions", Mentions: 15, AvgScore: 72, Sentiment: "positive"},
			{Name: "Lift Wait Times", Mentions: 8, AvgScore: 30, Sentiment: "negative"},
		},
		Feed: []dashboard.FeedItem{
			{Source: "Reddit", Resort: "fortress", Sentiment: "positive", Text: "Incredible powder today"},
		},
	}
}

func TestRenderEmail(t *testing.T) {
	body, err := renderEmail(sampleOutput(), "Monday, January 12, 2026")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{
		"Monday, January 12, 2026",
		"Alpine Pulse",
		"Fortress Mountain",
		"Snow Conditions",
		"Lift Wait Times",
		"Incredible powder today",
		">55%<",
		">42<",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderEmail_SentimentColors(t *testing.T) {
	body, err := renderEmail(sampleOutput(), "Monday, January 12, 2026")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "#34d399") {
		t.Error("positive color missing")
	}
	if !strings.Contains(body, "#f87171") {
		t.Error("negative color missing")
	}
}

func TestRenderEmail_EscapesHTML(t *testing.T) {
	o := sampleOutput()
	o.Feed[0].Text = `<script>alert("x")</script>`

	body, err := renderEmail(o, "Monday, January 12, 2026")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("feed text not HTML-escaped")
	}
}

func TestRenderEmail_CapsRows(t *testing.T) {
	o := sampleOutput()
	o.Themes = nil
	for i := 0; i < 12; i++ {
		o.Themes = append(o.Themes, aggregate.ThemeStats{Name: "Theme" + string(rune('A'+i)), Mentions: 1, Sentiment: "neutral"})
	}

	body, err := renderEmail(o, "Monday, January 12, 2026")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "ThemeI") {
		t.Error("theme rows not capped at 8")
	}
	if !strings.Contains(body, "ThemeH") {
		t.Error("eighth theme missing")
	}
}

func TestNotify_RequiresConfiguration(t *testing.T) {
	e := NewEmailSender("smtp.example.com", 587, "", "", "")
	if err := e.Notify(sampleOutput()); err == nil {
		t.Fatal("expected error when SMTP user is unset")
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("positive"); got != "Positive" {
		t.Errorf("titleCase = %q", got)
	}
	if got := titleCase(""); got != "" {
		t.Errorf("titleCase empty = %q", got)
	}
}
