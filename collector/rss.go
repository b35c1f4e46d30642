package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"alpine-pulse/config"
	"alpine-pulse/mention"
)

const (
	maxDescriptionLen = 300
	// Descriptions shorter than this are enriched by fetching the article
	// itself and extracting readable text.
	thinDescriptionLen = 80
	maxExcerptLen      = 300
)

// RSS collects mentions from news RSS feeds (Google News searches and any
// configured custom feeds).
type RSS struct {
	feeds     []string
	resorts   []config.Resort
	lookback  time.Duration
	userAgent string
	client    *http.Client
	enrich    bool
}

// NewRSS creates an RSS collector. When enrich is true, items with thin
// descriptions are expanded by fetching the linked article and extracting its
// readable text.
func NewRSS(feeds []string, resorts []config.Resort, lookback time.Duration, userAgent string, client *http.Client, enrich bool) *RSS {
	if client == nil {
		client = http.DefaultClient
	}
	return &RSS{
		feeds:     feeds,
		resorts:   resorts,
		lookback:  lookback,
		userAgent: userAgent,
		client:    client,
		enrich:    enrich,
	}
}

// Name identifies this collector in logs and metrics.
func (c *RSS) Name() string { return "rss" }

type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// Collect fetches every configured feed. A failing feed is logged and skipped;
// the remaining feeds still contribute mentions.
func (c *RSS) Collect(ctx context.Context) ([]mention.Mention, error) {
	cutoff := time.Now().Add(-c.lookback)

	var mentions []mention.Mention
	for _, feedURL := range c.feeds {
		items, err := c.fetchFeed(ctx, feedURL)
		if err != nil {
			slog.Warn("rss feed failed", "feed", feedURL, "error", err)
			continue
		}

		for _, item := range items {
			// Items with a parseable date older than the lookback window are
			// dropped; undated items are kept.
			if t, err := dateparse.ParseAny(item.PubDate); err == nil && t.Before(cutoff) {
				continue
			}

			source := item.Source
			if source == "" {
				source = "News"
			}

			desc := mention.Truncate(item.Description, maxDescriptionLen)
			text := item.Title
			if desc != "" {
				text = item.Title + " - " + desc
			}
			if c.enrich && len(item.Description) < thinDescriptionLen && item.Link != "" {
				if excerpt, err := c.readableExcerpt(ctx, item.Link); err == nil && excerpt != "" {
					text = item.Title + " - " + excerpt
				}
			}

			key := item.Link
			if key == "" {
				key = item.Title
			}

			mentions = append(mentions, mention.Mention{
				ID:         mention.MakeID(key),
				Source:     source,
				Resort:     attributeResort(item.Title+" "+item.Description, c.resorts),
				Text:       text,
				URL:        item.Link,
				Timestamp:  item.PubDate,
				Engagement: "News article",
				Author:     source,
			})
		}
	}
	return mentions, nil
}

func (c *RSS) fetchFeed(ctx context.Context, feedURL string) ([]rssItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating feed request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var doc rssDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return doc.Channel.Items, nil
}

// readableExcerpt fetches an article page and extracts a short readable
// excerpt from it.
func (c *RSS) readableExcerpt(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating article request for %s: %w", articleURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article %s returned status %d", articleURL, resp.StatusCode)
	}

	pageURL, err := url.Parse(articleURL)
	if err != nil {
		return "", fmt.Errorf("parsing article url %s: %w", articleURL, err)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", articleURL, err)
	}
	return mention.Truncate(strings.TrimSpace(article.TextContent), maxExcerptLen), nil
}
