// Package analyzer classifies mentions in fixed-size batches through the
// annotation service, degrading to the keyword classifier at batch
// granularity. Every input mention yields exactly one classified output.
package analyzer

import (
	"context"
	"log/slog"
	"time"

	"alpine-pulse/classifier"
	"alpine-pulse/config"
	"alpine-pulse/mention"
	"alpine-pulse/metrics"
)

// Batch partitions mentions and drives the Annotator. A nil Annotator (no API
// key configured) sends everything through the fallback classifier.
type Batch struct {
	annotator Annotator
	themes    []config.Theme
	batchSize int
	delay     time.Duration
}

// NewBatch creates a batch analyzer. delay is the courtesy pause between
// service calls; zero disables it.
func NewBatch(annotator Annotator, themes []config.Theme, batchSize int, delay time.Duration) *Batch {
	if batchSize <= 0 {
		batchSize = 15
	}
	return &Batch{
		annotator: annotator,
		themes:    themes,
		batchSize: batchSize,
		delay:     delay,
	}
}

// Analyze classifies all mentions. Output order follows input order within each
// batch; the result always has exactly one entry per input mention.
func (b *Batch) Analyze(ctx context.Context, ms []mention.Mention) []mention.Classified {
	if len(ms) == 0 {
		return nil
	}

	out := make([]mention.Classified, 0, len(ms))
	for start := 0; start < len(ms); start += b.batchSize {
		end := min(start+b.batchSize, len(ms))
		out = append(out, b.analyzeBatch(ctx, ms[start:end])...)

		if end < len(ms) && b.delay > 0 {
			select {
			case <-ctx.Done():
				// Remaining batches degrade to fallback below; the run
				// still produces one output per input.
			case <-time.After(b.delay):
			}
		}
	}
	return out
}

func (b *Batch) analyzeBatch(ctx context.Context, batch []mention.Mention) []mention.Classified {
	if b.annotator == nil {
		return b.fallbackBatch(batch)
	}

	results, err := b.annotator.AnnotateBatch(ctx, batch)
	if err != nil {
		slog.Warn("annotation batch failed, using keyword fallback", "size", len(batch), "error", err)
		metrics.BatchFallbacks.Inc()
		return b.fallbackBatch(batch)
	}

	// Map returned indices back to batch positions. Indices outside the batch
	// are ignored; duplicates keep the last occurrence.
	byIndex := make(map[int]BatchResult, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(batch) {
			continue
		}
		byIndex[r.Index] = r
	}

	out := make([]mention.Classified, 0, len(batch))
	for i, m := range batch {
		r, ok := byIndex[i]
		if !ok {
			out = append(out, classifier.Classify(m, b.themes))
			metrics.MentionsAnalyzed.WithLabelValues("fallback").Inc()
			continue
		}
		out = append(out, merge(m, r, b.themes))
		metrics.MentionsAnalyzed.WithLabelValues("service").Inc()
	}
	return out
}

func (b *Batch) fallbackBatch(batch []mention.Mention) []mention.Classified {
	out := make([]mention.Classified, 0, len(batch))
	for _, m := range batch {
		out = append(out, classifier.Classify(m, b.themes))
		metrics.MentionsAnalyzed.WithLabelValues("fallback").Inc()
	}
	return out
}

// merge builds the classification from a service result, substituting the
// fallback value for any field the service omitted. Service scores are taken
// as returned, without re-derivation or clamping.
func merge(m mention.Mention, r BatchResult, themes []config.Theme) mention.Classified {
	fb := classifier.Classify(m, themes).Classification

	c := fb
	if r.Sentiment != nil {
		c.Sentiment = *r.Sentiment
	}
	if r.Score != nil {
		c.Score = *r.Score
	}
	if r.Theme != nil {
		c.Theme = *r.Theme
	}
	if r.Takeaway != nil {
		c.Takeaway = *r.Takeaway
	}
	return m.WithClassification(c)
}
