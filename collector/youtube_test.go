package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestYouTube_Collect(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "yt-key" {
			t.Errorf("key = %q, want yt-key", q.Get("key"))
		}
		if q.Get("publishedAfter") == "" {
			t.Error("publishedAfter missing")
		}
		queries = append(queries, q.Get("q"))

		fmt.Fprint(w, `{"items":[{
			"id":{"videoId":"abc123"},
			"snippet":{
				"title":"Fortress Mountain pow day",
				"description":"Deep snow",
				"publishedAt":"2026-01-12T08:00:00Z",
				"channelTitle":"SkiVlogs"
			}
		}]}`)
	}))
	defer srv.Close()

	c := NewYouTube("yt-key", testResorts[:1], 26*time.Hour, srv.Client())
	c.baseURL = srv.URL

	ms, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two search terms for the resort, one item each.
	if len(queries) != 2 {
		t.Errorf("expected 2 searches, got %d: %v", len(queries), queries)
	}
	if len(ms) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(ms))
	}

	m := ms[0]
	if m.Source != "YouTube" {
		t.Errorf("source = %q", m.Source)
	}
	if m.URL != "https://youtube.com/watch?v=abc123" {
		t.Errorf("url = %q", m.URL)
	}
	if m.Author != "SkiVlogs" {
		t.Errorf("author = %q", m.Author)
	}
	if m.Resort != "fortress" {
		t.Errorf("resort = %q", m.Resort)
	}
}

func TestYouTube_NoKeySkips(t *testing.T) {
	c := NewYouTube("", testResorts, 26*time.Hour, nil)
	ms, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms != nil {
		t.Errorf("expected nil mentions without an API key, got %v", ms)
	}
}

func TestYouTube_FailedSearchSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewYouTube("yt-key", testResorts[:1], 26*time.Hour, srv.Client())
	c.baseURL = srv.URL

	ms, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("a failing search must not fail the collect: %v", err)
	}
	if len(ms) != 0 {
		t.Errorf("expected no mentions, got %d", len(ms))
	}
}
