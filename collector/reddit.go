package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"alpine-pulse/config"
	"alpine-pulse/mention"
)

const (
	redditAuthURL = "https://www.reddit.com"
	redditAPIURL  = "https://oauth.reddit.com"

	maxSelftextLen = 500
)

// Reddit collects post mentions via the Reddit search API using app-only
// (client credentials) OAuth.
type Reddit struct {
	clientID     string
	clientSecret string
	userAgent    string
	resorts      []config.Resort
	lookback     time.Duration
	client       *http.Client
	authURL      string
	apiURL       string
}

// NewReddit creates a Reddit collector. Missing credentials make Collect a
// logged no-op.
func NewReddit(clientID, clientSecret, userAgent string, resorts []config.Resort, lookback time.Duration, client *http.Client) *Reddit {
	if client == nil {
		client = http.DefaultClient
	}
	return &Reddit{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		resorts:      resorts,
		lookback:     lookback,
		client:       client,
		authURL:      redditAuthURL,
		apiURL:       redditAPIURL,
	}
}

// newRedditWithURLs is used by tests to point the collector at a test server.
func newRedditWithURLs(clientID, clientSecret, userAgent string, resorts []config.Resort, lookback time.Duration, client *http.Client, authURL, apiURL string) *Reddit {
	c := NewReddit(clientID, clientSecret, userAgent, resorts, lookback, client)
	c.authURL = authURL
	c.apiURL = apiURL
	return c
}

// Name identifies this collector in logs and metrics.
func (c *Reddit) Name() string { return "reddit" }

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Author      string  `json:"author"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Collect searches Reddit for each resort's search terms, keeping posts
// created within the lookback window.
func (c *Reddit) Collect(ctx context.Context) ([]mention.Mention, error) {
	if c.clientID == "" || c.clientSecret == "" {
		slog.Info("reddit: no credentials configured, skipping")
		return nil, nil
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating with reddit: %w", err)
	}

	cutoff := time.Now().Add(-c.lookback).Unix()

	var mentions []mention.Mention
	for _, resort := range c.resorts {
		for _, term := range searchTerms(resort, 2) {
			posts, err := c.search(ctx, token, term)
			if err != nil {
				slog.Warn("reddit search failed", "term", term, "error", err)
				continue
			}

			for _, post := range posts {
				if int64(post.CreatedUTC) < cutoff {
					continue
				}

				text := post.Title
				if post.Selftext != "" {
					text = post.Title + " " + mention.Truncate(post.Selftext, maxSelftextLen)
				}

				mentions = append(mentions, mention.Mention{
					ID:        mention.MakeID(post.ID),
					Source:    "Reddit",
					Resort:    resort.Key,
					Text:      text,
					URL:       "https://reddit.com" + post.Permalink,
					Timestamp: time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339),
					Engagement: fmt.Sprintf("%s upvotes · %s comments",
						humanize.Comma(int64(post.Score)), humanize.Comma(int64(post.NumComments))),
					Author: post.Author,
				})
			}
		}
	}
	return mentions, nil
}

func (c *Reddit) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return tr.AccessToken, nil
}

func (c *Reddit) search(ctx context.Context, token, term string) ([]redditPost, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("sort", "new")
	params.Set("limit", "25")
	params.Set("t", "day")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}
