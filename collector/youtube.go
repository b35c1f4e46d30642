package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"alpine-pulse/config"
	"alpine-pulse/mention"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTube collects video mentions via the YouTube Data API v3 search endpoint.
type YouTube struct {
	apiKey   string
	resorts  []config.Resort
	lookback time.Duration
	client   *http.Client
	baseURL  string
}

// NewYouTube creates a YouTube collector. An empty API key makes Collect a
// logged no-op.
func NewYouTube(apiKey string, resorts []config.Resort, lookback time.Duration, client *http.Client) *YouTube {
	if client == nil {
		client = http.DefaultClient
	}
	return &YouTube{
		apiKey:   apiKey,
		resorts:  resorts,
		lookback: lookback,
		client:   client,
		baseURL:  youtubeBaseURL,
	}
}

// Name identifies this collector in logs and metrics.
func (c *YouTube) Name() string { return "youtube" }

type youtubeItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		PublishedAt  string `json:"publishedAt"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []youtubeItem `json:"items"`
}

// Collect searches for recent videos per resort term.
func (c *YouTube) Collect(ctx context.Context) ([]mention.Mention, error) {
	if c.apiKey == "" {
		slog.Info("youtube: no API key configured, skipping")
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-c.lookback).Format(time.RFC3339)

	var mentions []mention.Mention
	for _, resort := range c.resorts {
		for _, term := range searchTerms(resort, 2) {
			items, err := c.search(ctx, term, cutoff)
			if err != nil {
				slog.Warn("youtube search failed", "term", term, "error", err)
				continue
			}

			for _, item := range items {
				if item.ID.VideoID == "" {
					continue
				}
				mentions = append(mentions, mention.Mention{
					ID:         mention.MakeID(item.ID.VideoID),
					Source:     "YouTube",
					Resort:     resort.Key,
					Text:       item.Snippet.Title + " " + mention.Truncate(item.Snippet.Description, maxDescriptionLen),
					URL:        "https://youtube.com/watch?v=" + item.ID.VideoID,
					Timestamp:  item.Snippet.PublishedAt,
					Engagement: "Video",
					Author:     item.Snippet.ChannelTitle,
				})
			}
		}
	}
	return mentions, nil
}

func (c *YouTube) search(ctx context.Context, term, publishedAfter string) ([]youtubeItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", term)
	params.Set("type", "video")
	params.Set("publishedAfter", publishedAfter)
	params.Set("maxResults", "10")
	params.Set("order", "date")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var sr youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return sr.Items, nil
}
