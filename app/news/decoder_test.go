package news

import (
	"encoding/json"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestDecode_AllFieldsMissing(t *testing.T) {
	article := Decode(RawRecord{})

	if article.ID == "" {
		t.Error("Expected generated ID, got empty string")
	}
	if article.Title != DefaultTitle {
		t.Errorf("Expected title %q, got %q", DefaultTitle, article.Title)
	}
	if article.Summary != "" {
		t.Errorf("Expected empty summary, got %q", article.Summary)
	}
	if article.Content != "" {
		t.Errorf("Expected empty content, got %q", article.Content)
	}
	if article.SourceName != "Channel #0" {
		t.Errorf("Expected source name 'Channel #0', got %q", article.SourceName)
	}
	if article.SourceURL != DefaultSourceURL {
		t.Errorf("Expected source URL %q, got %q", DefaultSourceURL, article.SourceURL)
	}
	if article.Category != DefaultCategory {
		t.Errorf("Expected category %q, got %q", DefaultCategory, article.Category)
	}
	if article.ImageURL != "" {
		t.Errorf("Expected empty image URL, got %q", article.ImageURL)
	}
	if article.ImagePlaceholder != DefaultImagePlaceholder {
		t.Errorf("Expected image placeholder %q, got %q", DefaultImagePlaceholder, article.ImagePlaceholder)
	}
	if article.PublishedDate != "" {
		t.Errorf("Expected empty published date, got %q", article.PublishedDate)
	}
	if article.IsBookmarked {
		t.Error("Expected IsBookmarked to be false")
	}
}

func TestDecode_GeneratedIDsAreUnique(t *testing.T) {
	first := Decode(RawRecord{})
	second := Decode(RawRecord{})

	if first.ID == second.ID {
		t.Errorf("Expected distinct generated IDs, both were %q", first.ID)
	}
}

func TestDecode_SummaryFromLongContent(t *testing.T) {
	content := strings.Repeat("Lorem ipsum dolor sit amet. ", 8)[:200]

	article := Decode(RawRecord{
		Content: &content,
		Status:  strPtr("published"),
	})

	if article.Title != DefaultTitle {
		t.Errorf("Expected placeholder title, got %q", article.Title)
	}
	if article.Summary != content[:140] {
		t.Errorf("Expected summary to be first 140 characters of content, got %q", article.Summary)
	}
	if article.Content != content {
		t.Error("Expected content to be kept verbatim")
	}
	if article.ID == "" {
		t.Error("Expected non-empty generated ID")
	}
}

func TestDecode_SummaryCountsCharactersNotBytes(t *testing.T) {
	content := strings.Repeat("ứ", 150)

	article := Decode(RawRecord{Content: &content})

	if got := len([]rune(article.Summary)); got != SummaryLength {
		t.Errorf("Expected summary of %d characters, got %d", SummaryLength, got)
	}
}

func TestDecode_ShortContentIsWholeSummary(t *testing.T) {
	article := Decode(RawRecord{Content: strPtr("Short body")})

	if article.Summary != "Short body" {
		t.Errorf("Expected summary 'Short body', got %q", article.Summary)
	}
}

func TestDecode_ContentFallsBackToSummary(t *testing.T) {
	article := Decode(RawRecord{Summary: strPtr("Only a summary")})

	if article.Content != "Only a summary" {
		t.Errorf("Expected content to fall back to summary, got %q", article.Content)
	}
	if article.Summary != "Only a summary" {
		t.Errorf("Expected summary to be kept, got %q", article.Summary)
	}
}

func TestDecode_PresentFieldsAreKept(t *testing.T) {
	record := RawRecord{
		ID:           strPtr("a1"),
		ChannelID:    int64Ptr(42),
		Title:        strPtr("Election results"),
		Summary:      strPtr("Short"),
		Content:      strPtr("Long body"),
		SourceURL:    strPtr("https://example.com/a1"),
		HeroImageURL: strPtr("https://cdn.example.com/a1.jpg"),
		PublishedAt:  strPtr("2025-09-25T01:00:00+00:00"),
		Metadata:     map[string]json.RawMessage{"category": json.RawMessage(`"Politics"`)},
	}

	article := Decode(record)

	if article.ID != "a1" {
		t.Errorf("Expected ID 'a1', got %q", article.ID)
	}
	if article.Title != "Election results" {
		t.Errorf("Expected title 'Election results', got %q", article.Title)
	}
	if article.Summary != "Short" {
		t.Errorf("Expected summary 'Short', got %q", article.Summary)
	}
	if article.SourceName != "Channel #42" {
		t.Errorf("Expected source name 'Channel #42', got %q", article.SourceName)
	}
	if article.SourceURL != "https://example.com/a1" {
		t.Errorf("Expected source URL to be kept, got %q", article.SourceURL)
	}
	if article.Category != "Politics" {
		t.Errorf("Expected category 'Politics', got %q", article.Category)
	}
	if article.ImageURL != "https://cdn.example.com/a1.jpg" {
		t.Errorf("Expected image URL to be kept, got %q", article.ImageURL)
	}
	if article.PublishedDate != "2025-09-25" {
		t.Errorf("Expected published date '2025-09-25', got %q", article.PublishedDate)
	}
}

func TestDecode_PublishedDate(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected string
	}{
		{"missing", nil, ""},
		{"iso timestamp", strPtr("2025-01-02T10:00:00Z"), "2025-01-02"},
		{"postgres text timestamp", strPtr("2025-01-02 10:00:00+00"), "2025-01-02"},
		{"date only", strPtr("2025-01-02"), "2025-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(RawRecord{PublishedAt: tt.input}).PublishedDate
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRawRecord_Category(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]json.RawMessage
		expected string
		ok       bool
	}{
		{"no metadata", nil, "", false},
		{"lower key", map[string]json.RawMessage{"category": json.RawMessage(`"Tech"`)}, "Tech", true},
		{"capitalized key", map[string]json.RawMessage{"Category": json.RawMessage(`"Tech"`)}, "Tech", true},
		{"lower key wins", map[string]json.RawMessage{
			"category": json.RawMessage(`"Sports"`),
			"Category": json.RawMessage(`"Tech"`),
		}, "Sports", true},
		{"null lower key falls back", map[string]json.RawMessage{
			"category": json.RawMessage(`null`),
			"Category": json.RawMessage(`"Tech"`),
		}, "Tech", true},
		{"object value ignored", map[string]json.RawMessage{"category": json.RawMessage(`{"name":"Tech"}`)}, "", false},
		{"number value", map[string]json.RawMessage{"category": json.RawMessage(`7`)}, "7", true},
		{"other keys only", map[string]json.RawMessage{"CATEGORY": json.RawMessage(`"Tech"`)}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RawRecord{Metadata: tt.metadata}.Category()
			if got != tt.expected || ok != tt.ok {
				t.Errorf("Expected (%q, %t), got (%q, %t)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestDecode_FromBackendJSON(t *testing.T) {
	payload := `{
		"id": null,
		"channel_id": 3,
		"title": null,
		"content": "Body",
		"status": "published",
		"deleted_at": null,
		"metadata": {"Category": "Tech", "tags": ["a", "b"]}
	}`

	var record RawRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}

	article := Decode(record)

	if article.ID == "" {
		t.Error("Expected generated ID for null id")
	}
	if article.Title != DefaultTitle {
		t.Errorf("Expected placeholder title for null title, got %q", article.Title)
	}
	if article.SourceName != "Channel #3" {
		t.Errorf("Expected 'Channel #3', got %q", article.SourceName)
	}
	if article.Category != "Tech" {
		t.Errorf("Expected category 'Tech', got %q", article.Category)
	}
}
