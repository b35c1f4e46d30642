package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"alpine-pulse/classifier"
	"alpine-pulse/config"
	"alpine-pulse/dashboard"
	"alpine-pulse/history"
	"alpine-pulse/mention"
)

// --- mocks ---

type mockCollector struct {
	name string
	ms   []mention.Mention
	err  error
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) Collect(ctx context.Context) ([]mention.Mention, error) {
	return m.ms, m.err
}

// fallbackAnalyzer classifies with the keyword classifier, like a run without
// an API key.
type fallbackAnalyzer struct {
	themes []config.Theme
	seen   []mention.Mention
}

func (a *fallbackAnalyzer) Analyze(ctx context.Context, ms []mention.Mention) []mention.Classified {
	a.seen = ms
	out := make([]mention.Classified, 0, len(ms))
	for _, m := range ms {
		out = append(out, classifier.Classify(m, a.themes))
	}
	return out
}

type memStore struct {
	h       history.History
	saveErr error
	saves   int
}

func (s *memStore) Load() history.History { return s.h }
func (s *memStore) Save(h history.History) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.h = h
	return nil
}

type mockArchiver struct {
	date string
	ms   []mention.Classified
	err  error
}

func (a *mockArchiver) SaveMentions(date string, ms []mention.Classified) error {
	a.date = date
	a.ms = ms
	return a.err
}

type mockNotifier struct {
	notified int
	err      error
}

func (n *mockNotifier) Notify(o dashboard.Output) error {
	n.notified++
	return n.err
}

// --- helpers ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func readDashboard(t *testing.T, dir string) dashboard.Output {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "dashboard.json"))
	if err != nil {
		t.Fatalf("dashboard not written: %v", err)
	}
	var out dashboard.Output
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("dashboard not valid JSON: %v", err)
	}
	return out
}

func raw(id, resort, text string) mention.Mention {
	return mention.Mention{ID: id, Source: "Reddit", Resort: resort, Text: text}
}

// --- tests ---

func TestRun_FullCycle(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}
	archiver := &mockArchiver{}
	notifier := &mockNotifier{}

	collectors := []Collector{
		&mockCollector{name: "reddit", ms: []mention.Mention{
			raw("a", "fortress", "Amazing powder, best day ever"),
			raw("b", "castle", "Terrible overcrowded lift line, rude staff"),
		}},
		&mockCollector{name: "rss", ms: []mention.Mention{
			raw("a", "fortress", "duplicate of the reddit post"),
		}},
	}

	r := NewRunner(collectors, &fallbackAnalyzer{themes: cfg.Themes}, store, archiver, []Notifier{notifier}, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := readDashboard(t, cfg.DataDir)
	if out.Summary.TotalMentions != 2 {
		t.Errorf("total = %d, want 2 after dedup", out.Summary.TotalMentions)
	}
	if sum := out.Summary.PositivePct + out.Summary.NeutralPct + out.Summary.NegativePct; sum != 100 {
		t.Errorf("percentages sum to %d", sum)
	}

	if len(store.h.Daily) != 1 {
		t.Errorf("history entries = %d, want 1", len(store.h.Daily))
	}
	if archiver.date == "" || len(archiver.ms) != 2 {
		t.Errorf("archive not called correctly: date=%q n=%d", archiver.date, len(archiver.ms))
	}
	if notifier.notified != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.notified)
	}
}

func TestRun_CollectorFailureTolerated(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}

	collectors := []Collector{
		&mockCollector{name: "reddit", err: errors.New("rate limited")},
		&mockCollector{name: "rss", ms: []mention.Mention{raw("a", "fortress", "Fresh snow")}},
	}

	r := NewRunner(collectors, &fallbackAnalyzer{themes: cfg.Themes}, store, nil, nil, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("failing collector must not fail the run: %v", err)
	}

	out := readDashboard(t, cfg.DataDir)
	if out.Summary.TotalMentions != 1 {
		t.Errorf("total = %d, want 1 from the healthy collector", out.Summary.TotalMentions)
	}
}

func TestRun_EmptyInputProducesZeroDashboard(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}

	r := NewRunner([]Collector{&mockCollector{name: "reddit"}}, &fallbackAnalyzer{themes: cfg.Themes}, store, nil, nil, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := readDashboard(t, cfg.DataDir)
	if out.Summary.TotalMentions != 0 {
		t.Errorf("total = %d, want 0", out.Summary.TotalMentions)
	}
	if out.Summary.PositivePct != 0 || out.Summary.NegativePct != 0 {
		t.Errorf("zero run must report zero percentages: %+v", out.Summary)
	}
	if len(store.h.Daily) != 1 || store.h.Daily[0].Total != 0 {
		t.Errorf("zero run must still record a history entry: %+v", store.h.Daily)
	}
}

func TestRun_SameDayRerunReplacesHistoryEntry(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}

	r := NewRunner([]Collector{
		&mockCollector{name: "rss", ms: []mention.Mention{raw("a", "fortress", "Fresh snow")}},
	}, &fallbackAnalyzer{themes: cfg.Themes}, store, nil, nil, cfg)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(store.h.Daily) != 1 {
		t.Errorf("same-day re-run duplicated the history entry: %d entries", len(store.h.Daily))
	}
}

func TestRun_HistorySaveFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{saveErr: errors.New("disk full")}

	r := NewRunner([]Collector{&mockCollector{name: "rss"}}, &fallbackAnalyzer{themes: cfg.Themes}, store, nil, nil, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("history save failure must not fail the run: %v", err)
	}
	readDashboard(t, cfg.DataDir)
}

func TestRun_NotifierFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}
	notifier := &mockNotifier{err: errors.New("smtp down")}

	r := NewRunner([]Collector{&mockCollector{name: "rss"}}, &fallbackAnalyzer{themes: cfg.Themes}, store, nil, []Notifier{notifier}, cfg)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("notifier failure must not fail the run: %v", err)
	}
	if notifier.notified != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.notified)
	}
}

func TestRun_SanitizesBeforeAnalysis(t *testing.T) {
	cfg := testConfig(t)
	store := &memStore{}
	analyzer := &fallbackAnalyzer{themes: cfg.Themes}

	r := NewRunner([]Collector{
		&mockCollector{name: "rss", ms: []mention.Mention{
			{ID: "a", Resort: "fortress", Text: "  provincial funding announcement  "},
		}},
	}, analyzer, store, nil, nil, cfg)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(analyzer.seen) != 1 {
		t.Fatalf("analyzer saw %d mentions", len(analyzer.seen))
	}
	m := analyzer.seen[0]
	if m.Text != "provincial funding announcement" {
		t.Errorf("text not trimmed: %q", m.Text)
	}
	if !m.GovernmentRelated {
		t.Error("government flag not set during sanitize")
	}
	if m.Source != "Reddit" {
		t.Errorf("source = %q", m.Source)
	}
}
