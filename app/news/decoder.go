package news

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var categoryKeys = []string{"category", "Category"}

// Decode converts a backend row into an Article. It never fails: every
// missing column resolves to a default.
func Decode(record RawRecord) Article {
	return Article{
		ID:               valueOr(record.ID, func() string { return uuid.NewString() }),
		Title:            valueOr(record.Title, constant(DefaultTitle)),
		Summary:          valueOr(record.Summary, func() string { return summaryFrom(record.Content) }),
		Content:          valueOr(record.Content, func() string { return valueOr(record.Summary, constant("")) }),
		SourceName:       sourceName(record.ChannelID),
		SourceURL:        valueOr(record.SourceURL, constant(DefaultSourceURL)),
		Category:         categoryOr(record, DefaultCategory),
		ImageURL:         valueOr(record.HeroImageURL, constant("")),
		ImagePlaceholder: DefaultImagePlaceholder,
		PublishedDate:    datePortion(record.PublishedAt),
		IsBookmarked:     false,
	}
}

// DecodeAll decodes records in order.
func DecodeAll(records []RawRecord) []Article {
	articles := make([]Article, 0, len(records))
	for _, record := range records {
		articles = append(articles, Decode(record))
	}
	return articles
}

// Category returns the metadata category, looking up "category" first and
// "Category" second. ok is false when neither key holds a primitive value.
func (r RawRecord) Category() (string, bool) {
	for _, key := range categoryKeys {
		if value, ok := primitiveContent(r.Metadata[key]); ok {
			return value, true
		}
	}
	return "", false
}

func categoryOr(record RawRecord, fallback string) string {
	if category, ok := record.Category(); ok {
		return category
	}
	return fallback
}

func primitiveContent(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	switch raw[0] {
	case '{', '[':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		// numbers and booleans keep their literal text
		return string(raw), true
	}
}

func summaryFrom(content *string) string {
	if content == nil {
		return ""
	}
	runes := []rune(*content)
	if len(runes) <= SummaryLength {
		return *content
	}
	return string(runes[:SummaryLength])
}

func sourceName(channelID *int64) string {
	var id int64
	if channelID != nil {
		id = *channelID
	}
	return fmt.Sprintf("Channel #%d", id)
}

func datePortion(publishedAt *string) string {
	if publishedAt == nil {
		return ""
	}
	if i := strings.IndexAny(*publishedAt, "T "); i >= 0 {
		return (*publishedAt)[:i]
	}
	return *publishedAt
}

func valueOr(value *string, fallback func() string) string {
	if value != nil {
		return *value
	}
	return fallback()
}

func constant(s string) func() string {
	return func() string { return s }
}
