package news

import (
	"encoding/json"
)

const (
	DefaultTitle            = "Tin tức"
	DefaultCategory         = "Tin tức"
	DefaultSourceURL        = "Supabase"
	DefaultImagePlaceholder = "placeholder_image"

	SummaryLength = 140

	StatusPublished = "published"
)

// Article is the normalized record handed to the UI. Every field carries a
// defined value once it leaves Decode.
type Article struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Summary          string `json:"summary"`
	Content          string `json:"content"`
	SourceName       string `json:"source_name"`
	SourceURL        string `json:"source_url"`
	Category         string `json:"category"`
	ImageURL         string `json:"image_url"`
	ImagePlaceholder string `json:"image_placeholder"`
	PublishedDate    string `json:"published_date"`
	IsBookmarked     bool   `json:"is_bookmarked"`
}

// RawRecord mirrors a row of the backend articles table. Every column is
// optional; nil means the column was null or missing.
type RawRecord struct {
	ID           *string                    `json:"id"`
	ChannelID    *int64                     `json:"channel_id"`
	Title        *string                    `json:"title"`
	Slug         *string                    `json:"slug"`
	Summary      *string                    `json:"summary"`
	Content      *string                    `json:"content"`
	SourceURL    *string                    `json:"source_url"`
	HeroImageURL *string                    `json:"hero_image_url"`
	Language     *string                    `json:"language"`
	PublishedAt  *string                    `json:"published_at"`
	Status       *string                    `json:"status"`
	DeletedAt    *string                    `json:"deleted_at"`
	Metadata     map[string]json.RawMessage `json:"metadata"`
}

// Result is delivered exactly once per asynchronous fetch.
type Result struct {
	Articles []Article
	Err      error
}
