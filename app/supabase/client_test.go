package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lysyi3m/news-relay/app/news"
)

const articlesPayload = `[
	{"id": "a1", "channel_id": 1, "title": "Old", "status": "published", "published_at": "2025-01-01T00:00:00Z", "metadata": {"category": "Tech"}},
	{"id": "a2", "channel_id": 2, "title": "Draft", "status": "draft", "published_at": "2025-01-03T00:00:00Z"},
	{"id": "a3", "channel_id": 3, "title": "New", "status": "published", "published_at": "2025-01-02T00:00:00Z", "metadata": {"Category": "Sports"}}
]`

func TestClient_ListArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/articles" {
			t.Errorf("Expected path /rest/v1/articles, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("select") != "*" {
			t.Errorf("Expected select=*, got %q", r.URL.Query().Get("select"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("Expected apikey header, got %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer anon-key" {
			t.Errorf("Expected bearer authorization, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(articlesPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "anon-key", server.Client())

	records, err := client.ListArticles(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[1].Status == nil || *records[1].Status != "draft" {
		t.Error("Expected records to be returned unfiltered")
	}
}

func TestClient_Configured(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		apiKey   string
		expected bool
	}{
		{"both set", "https://x.supabase.co", "key", true},
		{"missing url", "", "key", false},
		{"missing key", "https://x.supabase.co", "", false},
		{"blank values", "  ", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewClient(tt.baseURL, tt.apiKey, nil).Configured(); got != tt.expected {
				t.Errorf("Expected %t, got %t", tt.expected, got)
			}
		})
	}
}

func TestClient_MissingCredentialsMakeNoRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	service := news.NewService(NewClient(server.URL, "", server.Client()), nil)

	_, err := service.FetchBreaking(context.Background())
	if !errors.Is(err, news.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}

	result := <-service.FetchCategoryAsync(context.Background(), "tech")
	if !errors.Is(result.Err, news.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration from async fetch, got %v", result.Err)
	}

	if hits.Load() != 0 {
		t.Errorf("Expected zero HTTP requests, got %d", hits.Load())
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"JWT expired"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "expired", server.Client())

	_, err := client.ListArticles(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", transportErr.StatusCode)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", server.Client())

	_, err := client.ListArticles(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Op != "decode" {
		t.Errorf("Expected decode operation, got %q", transportErr.Op)
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	service := news.NewService(NewClient(url, "key", nil), nil)

	_, err := service.FetchPopular(context.Background())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError to surface unchanged, got %T: %v", err, err)
	}
}

func TestService_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlesPayload))
	}))
	defer server.Close()

	service := news.NewService(NewClient(server.URL, "key", server.Client()), nil)

	articles, err := service.FetchBreaking(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 published articles, got %d", len(articles))
	}
	if articles[0].Title != "New" || articles[1].Title != "Old" {
		t.Errorf("Expected newest first, got %q then %q", articles[0].Title, articles[1].Title)
	}
	if articles[0].Category != "Sports" {
		t.Errorf("Expected category from capitalized key, got %q", articles[0].Category)
	}
	if articles[0].SourceName != "Channel #3" {
		t.Errorf("Expected 'Channel #3', got %q", articles[0].SourceName)
	}
}
