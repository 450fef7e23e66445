package news

import (
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
)

func sampleArticles() []Article {
	return []Article{
		{
			ID:            "a1",
			Title:         "Storm warning",
			Summary:       "Heavy rain expected",
			Content:       "<p>Heavy rain expected across the north.</p>",
			SourceName:    "Channel #2",
			SourceURL:     "https://example.com/storm",
			Category:      "Weather",
			PublishedDate: "2025-09-25",
		},
		{
			ID:         "a2",
			Title:      "Markets & <stocks>",
			Summary:    "",
			Content:    "",
			SourceName: "Channel #0",
			SourceURL:  DefaultSourceURL,
			Category:   DefaultCategory,
		},
	}
}

func TestGenerator_Run(t *testing.T) {
	generator := NewGenerator()

	channel := Channel{
		Title:    "Breaking news",
		Link:     "https://news.example.com",
		SelfLink: "https://news.example.com/feeds/breaking",
		Version:  "1.2.3",
	}

	rss, err := generator.Run(channel, sampleArticles())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	expected := []string{
		`<rss version="2.0"`,
		"<title>Breaking news</title>",
		`<atom:link href="https://news.example.com/feeds/breaking" rel="self" type="application/rss+xml" />`,
		"<generator>News-Relay/1.2.3</generator>",
		`<guid isPermaLink="false">a1</guid>`,
		"<link>https://example.com/storm</link>",
		"<content:encoded><![CDATA[<p>Heavy rain expected across the north.</p>]]></content:encoded>",
		"<pubDate>Thu, 25 Sep 2025 00:00:00 +0000</pubDate>",
		"<category>Weather</category>",
		"<title>Markets &amp; &lt;stocks&gt;</title>",
		"<description>No description available</description>",
	}

	for _, want := range expected {
		if !strings.Contains(rss, want) {
			t.Errorf("Expected RSS to contain %q", want)
		}
	}

	if strings.Contains(rss, "<link>Supabase</link>") {
		t.Error("Non-URL source labels must not be written as links")
	}
}

func TestGenerator_Run_ParsesAsRSS(t *testing.T) {
	generator := NewGenerator()

	rss, err := generator.Run(Channel{Title: "Popular", Link: "https://news.example.com"}, sampleArticles())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS does not parse: %v", err)
	}

	if feed.Title != "Popular" {
		t.Errorf("Expected feed title 'Popular', got %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}
	if feed.Items[0].GUID != "a1" {
		t.Errorf("Expected first GUID 'a1', got %q", feed.Items[0].GUID)
	}
	if feed.Items[0].PublishedParsed == nil {
		t.Error("Expected first item to carry a parsed publish date")
	}
	if len(feed.Items[0].Categories) != 1 || feed.Items[0].Categories[0] != "Weather" {
		t.Errorf("Unexpected categories: %v", feed.Items[0].Categories)
	}
}

func TestGenerator_Run_EmptyListing(t *testing.T) {
	generator := NewGenerator()

	rss, err := generator.Run(Channel{Title: "Empty"}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Expected no items in empty listing")
	}
	if !strings.Contains(rss, "<description>Empty</description>") {
		t.Error("Expected description to fall back to channel title")
	}
}
