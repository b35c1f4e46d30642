// Package pipeline orchestrates one end-to-end collection run: gather
// mentions from every source, deduplicate, classify, aggregate, roll the
// history forward, write the dashboard, archive, and notify.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"alpine-pulse/aggregate"
	"alpine-pulse/config"
	"alpine-pulse/dashboard"
	"alpine-pulse/history"
	"alpine-pulse/mention"
	"alpine-pulse/metrics"
)

// Collector gathers raw mentions from one source.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]mention.Mention, error)
}

// Analyzer classifies mentions with sentiment, theme, and takeaway.
type Analyzer interface {
	Analyze(ctx context.Context, ms []mention.Mention) []mention.Classified
}

// Archiver persists the classified mentions of a run.
type Archiver interface {
	SaveMentions(date string, ms []mention.Classified) error
}

// Notifier delivers a briefing built from the dashboard output.
type Notifier interface {
	Notify(o dashboard.Output) error
}

// Runner holds the wired pipeline dependencies.
type Runner struct {
	collectors []Collector
	analyzer   Analyzer
	store      history.Store
	archiver   Archiver
	notifiers  []Notifier
	cfg        *config.Config
	now        func() time.Time
}

// NewRunner creates a Runner. archiver may be nil; notifiers may be empty.
func NewRunner(collectors []Collector, analyzer Analyzer, store history.Store, archiver Archiver, notifiers []Notifier, cfg *config.Config) *Runner {
	return &Runner{
		collectors: collectors,
		analyzer:   analyzer,
		store:      store,
		archiver:   archiver,
		notifiers:  notifiers,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run executes one complete collection cycle. A run with zero mentions still
// produces a valid dashboard and a zero-total history entry for the day.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	log.Info("run starting", "collectors", len(r.collectors))

	status := "ok"
	defer func() {
		metrics.RunsTotal.WithLabelValues(status).Inc()
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	// 1. Collect. A failing source shrinks the result set, it never fails
	// the run.
	var raw []mention.Mention
	for _, c := range r.collectors {
		ms, err := c.Collect(ctx)
		if err != nil {
			log.Warn("collector failed", "source", c.Name(), "error", err)
			metrics.CollectorFailures.WithLabelValues(c.Name()).Inc()
			continue
		}
		metrics.MentionsCollected.WithLabelValues(c.Name()).Add(float64(len(ms)))
		log.Info("collected", "source", c.Name(), "count", len(ms))
		raw = append(raw, ms...)
	}

	// 2. Sanitize and deduplicate.
	for i := range raw {
		raw[i] = mention.Sanitize(raw[i])
	}
	unique := mention.Dedupe(raw)
	log.Info("deduplicated", "before", len(raw), "after", len(unique))

	// 3. Classify.
	analyzed := r.analyzer.Analyze(ctx, unique)

	// 4. Aggregate.
	agg := aggregate.Build(analyzed, r.cfg.Resorts, r.cfg.Themes)
	log.Info("aggregated",
		"total", agg.Summary.TotalMentions,
		"positive_pct", agg.Summary.PositivePct,
		"negative_pct", agg.Summary.NegativePct)

	// 5. Roll the history forward. A failed save is logged; the dashboard is
	// still written from the in-memory history.
	date := start.Format("2006-01-02")
	hist := r.store.Load()
	hist = hist.Upsert(snapshot(date, agg), r.cfg.RetentionDays)
	if err := r.store.Save(hist); err != nil {
		log.Error("saving history failed", "error", err)
		status = "degraded"
	}

	// 6. Write the dashboard.
	out := dashboard.Build(start, agg, hist, analyzed, dashboard.BuildConfig{
		TrendWindow:     r.cfg.TrendWindow,
		ThemeTrendCount: r.cfg.ThemeTrendCount,
		FeedLimit:       r.cfg.FeedLimit,
	})
	outPath := filepath.Join(r.cfg.DataDir, "dashboard.json")
	if err := dashboard.Write(outPath, out); err != nil {
		status = "error"
		return fmt.Errorf("writing dashboard: %w", err)
	}
	log.Info("dashboard written", "path", outPath)

	// 7. Archive.
	if r.archiver != nil {
		if err := r.archiver.SaveMentions(date, analyzed); err != nil {
			log.Warn("archiving mentions failed", "error", err)
			status = "degraded"
		}
	}

	// 8. Notify.
	for _, n := range r.notifiers {
		if err := n.Notify(out); err != nil {
			log.Warn("notifier failed", "error", err)
			status = "degraded"
		}
	}

	log.Info("run complete", "duration", time.Since(start).Round(time.Millisecond), "status", status)
	return nil
}

// snapshot converts an aggregation result into the day's history entry.
func snapshot(date string, agg aggregate.Result) history.Snapshot {
	themes := make(map[string]int, len(agg.Themes))
	for _, t := range agg.Themes {
		themes[t.Name] = t.Mentions
	}
	return history.Snapshot{
		Date:        date,
		Total:       agg.Summary.TotalMentions,
		PositivePct: agg.Summary.PositivePct,
		NeutralPct:  agg.Summary.NeutralPct,
		NegativePct: agg.Summary.NegativePct,
		Themes:      themes,
	}
}
