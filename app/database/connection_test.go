package database

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewConnection(t *testing.T) {
	_, err := NewConnection("invalid", "invalid", "invalid", "invalid", "invalid")
	if err == nil {
		t.Error("Expected error for invalid connection parameters")
	}
}

func TestListArticlesQuery(t *testing.T) {
	query, args, err := listArticlesQuery()
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}

	if !strings.HasPrefix(query, "SELECT id::text, channel_id, title") {
		t.Errorf("Unexpected query prefix: %s", query)
	}
	if !strings.HasSuffix(query, "FROM articles") {
		t.Errorf("Expected unfiltered select from articles, got: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("Expected no query arguments, got %v", args)
	}
}

func TestArticleRow_ToRawRecord(t *testing.T) {
	published := time.Date(2025, 9, 25, 1, 0, 0, 0, time.FixedZone("ICT", 7*3600))

	row := articleRow{
		ID:          sql.NullString{String: "a1", Valid: true},
		ChannelID:   sql.NullInt64{Int64: 7, Valid: true},
		Title:       sql.NullString{String: "Headline", Valid: true},
		PublishedAt: sql.NullTime{Time: published, Valid: true},
		Status:      sql.NullString{String: "published", Valid: true},
		Metadata:    []byte(`{"category": "Tech"}`),
	}

	record, err := row.toRawRecord()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if record.ID == nil || *record.ID != "a1" {
		t.Errorf("Expected ID 'a1', got %v", record.ID)
	}
	if record.ChannelID == nil || *record.ChannelID != 7 {
		t.Errorf("Expected channel 7, got %v", record.ChannelID)
	}
	if record.Summary != nil {
		t.Errorf("Expected NULL summary to stay nil, got %q", *record.Summary)
	}
	if record.DeletedAt != nil {
		t.Error("Expected NULL deleted_at to stay nil")
	}
	if record.PublishedAt == nil || *record.PublishedAt != "2025-09-24T18:00:00Z" {
		t.Errorf("Expected UTC RFC3339 timestamp, got %v", record.PublishedAt)
	}

	var category string
	if err := json.Unmarshal(record.Metadata["category"], &category); err != nil || category != "Tech" {
		t.Errorf("Expected metadata category 'Tech', got %q (%v)", category, err)
	}
}

func TestArticleRow_ToRawRecord_BadMetadata(t *testing.T) {
	row := articleRow{
		ID:       sql.NullString{String: "a1", Valid: true},
		Metadata: []byte(`not json`),
	}

	if _, err := row.toRawRecord(); err == nil {
		t.Error("Expected error for malformed metadata")
	}
}

func TestArticleRepository_Configured(t *testing.T) {
	if NewArticleRepository(nil).Configured() {
		t.Error("Expected repository without database to be unconfigured")
	}
	if !NewArticleRepository(&DB{DB: &sql.DB{}}).Configured() {
		t.Error("Expected repository with database to be configured")
	}
}
