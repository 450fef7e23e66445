package news

import (
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps published, non-deleted records, narrows them to category when one
// is given, and orders them newest first. Input order is preserved between
// records with equal timestamps.
func (f *Filterer) Run(records []RawRecord, category string) []RawRecord {
	fold := cases.Fold()
	// A blank filter means every category; anything else is compared as given.
	if strings.TrimSpace(category) == "" {
		category = ""
	}

	kept := make([]RawRecord, 0, len(records))
	for _, record := range records {
		if !f.isVisible(fold, record) {
			continue
		}
		if category != "" && !f.matchesCategory(fold, record, category) {
			continue
		}
		kept = append(kept, record)
	}

	return f.sortByPublishedAt(kept)
}

func (f *Filterer) isVisible(fold cases.Caser, record RawRecord) bool {
	if record.DeletedAt != nil {
		return false
	}
	return record.Status != nil && equalFold(fold, *record.Status, StatusPublished)
}

func (f *Filterer) matchesCategory(fold cases.Caser, record RawRecord, category string) bool {
	value, ok := record.Category()
	return ok && equalFold(fold, value, category)
}

type rankedRecord struct {
	record      RawRecord
	publishedAt time.Time
}

func (f *Filterer) sortByPublishedAt(records []RawRecord) []RawRecord {
	ranked := make([]rankedRecord, len(records))
	for i, record := range records {
		ranked[i] = rankedRecord{record: record, publishedAt: ParsePublishedAt(record.PublishedAt)}
	}

	slices.SortStableFunc(ranked, func(a, b rankedRecord) int {
		return b.publishedAt.Compare(a.publishedAt)
	})

	sorted := make([]RawRecord, len(ranked))
	for i, r := range ranked {
		sorted[i] = r.record
	}
	return sorted
}

// ParsePublishedAt returns the zero time for missing or unparseable values,
// which ranks them as the oldest.
func ParsePublishedAt(value *string) time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(*value))
	if err != nil {
		return time.Time{}
	}
	return t
}

func equalFold(fold cases.Caser, a, b string) bool {
	return fold.String(a) == fold.String(b)
}
