package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"alpine-pulse/mention"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	maxPromptTextLen = 400
	maxTokens        = 2000
)

// BatchResult is one element of the annotation service's response array. The
// index is batch-local; all classification fields are optional because the
// service is never assumed to be schema-compliant.
type BatchResult struct {
	Index     int     `json:"index"`
	Sentiment *string `json:"sentiment"`
	Score     *int    `json:"sentiment_score"`
	Theme     *string `json:"theme"`
	Takeaway  *string `json:"takeaway"`
}

// Annotator sends one batch of mentions to the annotation service and returns
// its parsed results, or an error when the response cannot be trusted.
type Annotator interface {
	AnnotateBatch(ctx context.Context, batch []mention.Mention) ([]BatchResult, error)
}

type claudeAnnotator struct {
	apiKey  string
	model   string
	themes  []string
	client  *http.Client
	baseURL string
}

// NewAnnotator creates an Annotator backed by the Anthropic Messages API.
// themes is the taxonomy offered to the model, in order.
func NewAnnotator(apiKey, model string, themes []string, client *http.Client) Annotator {
	if client == nil {
		client = http.DefaultClient
	}
	return &claudeAnnotator{
		apiKey:  apiKey,
		model:   model,
		themes:  themes,
		client:  client,
		baseURL: defaultBaseURL,
	}
}

// newAnnotatorWithURL creates an Annotator with a custom base URL for testing.
func newAnnotatorWithURL(apiKey, model string, themes []string, client *http.Client, url string) Annotator {
	a := NewAnnotator(apiKey, model, themes, client).(*claudeAnnotator)
	a.baseURL = url
	return a
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (a *claudeAnnotator) AnnotateBatch(ctx context.Context, batch []mention.Mention) ([]BatchResult, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: a.buildPrompt(batch)}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling annotation API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("annotation API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var mr messagesResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return nil, fmt.Errorf("parsing API response: %w", err)
	}
	if len(mr.Content) == 0 {
		return nil, fmt.Errorf("empty response from annotation API")
	}

	text := stripMarkdownCodeBlock(mr.Content[0].Text)

	var results []BatchResult
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("parsing result array: %w", err)
	}
	return results, nil
}

// buildPrompt describes each mention by its batch-local index, source, resort,
// a GOV marker for government-flagged items, and capped text.
func (a *claudeAnnotator) buildPrompt(batch []mention.Mention) string {
	themesJSON, _ := json.Marshal(a.themes)

	var lines []string
	for i, m := range batch {
		gov := ""
		if m.GovernmentRelated {
			gov = " | GOV"
		}
		lines = append(lines, fmt.Sprintf("[%d] SOURCE: %s | RESORT: %s%s | TEXT: %s",
			i, m.Source, m.Resort, gov, mention.Truncate(m.Text, maxPromptTextLen)))
	}

	return fmt.Sprintf(`You are analyzing social media and news mentions about Alberta ski resorts (Fortress Mountain, Castle Mountain Resort, and Nakiska) for an executive briefing.

For each mention below, provide:
1. sentiment: "positive", "neutral", or "negative"
2. sentiment_score: 0-100 (0=very negative, 50=neutral, 100=very positive)
3. theme: The best matching theme from this list: %s
4. takeaway: A 1-sentence executive summary of the key point

MENTIONS:
%s

Respond ONLY with a JSON array. Each element should have: index, sentiment, sentiment_score, theme, takeaway.
No markdown, no explanation.`, themesJSON, strings.Join(lines, "\n"))
}

// stripMarkdownCodeBlock removes code fence wrappers; the model sometimes
// wraps the array in ```json ... ``` despite instructions.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
