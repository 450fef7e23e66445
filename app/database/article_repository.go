package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lysyi3m/news-relay/app/news"
)

var _ news.Source = (*ArticleRepository)(nil)

var articleColumns = []string{
	"id::text",
	"channel_id",
	"title",
	"slug",
	"summary",
	"content",
	"source_url",
	"hero_image_url",
	"language",
	"published_at",
	"status",
	"deleted_at",
	"metadata",
}

// ArticleRepository reads the articles table directly, bypassing PostgREST.
type ArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func (r *ArticleRepository) Configured() bool {
	return r != nil && r.db != nil && r.db.DB != nil
}

func (r *ArticleRepository) ListArticles(ctx context.Context) ([]news.RawRecord, error) {
	query, args, err := listArticlesQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to build articles query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var records []news.RawRecord
	for rows.Next() {
		var row articleRow
		err := rows.Scan(
			&row.ID, &row.ChannelID, &row.Title, &row.Slug, &row.Summary, &row.Content,
			&row.SourceURL, &row.HeroImageURL, &row.Language, &row.PublishedAt,
			&row.Status, &row.DeletedAt, &row.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		record, err := row.toRawRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return records, nil
}

func listArticlesQuery() (string, []interface{}, error) {
	return sq.Select(articleColumns...).
		From("articles").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

type articleRow struct {
	ID           sql.NullString
	ChannelID    sql.NullInt64
	Title        sql.NullString
	Slug         sql.NullString
	Summary      sql.NullString
	Content      sql.NullString
	SourceURL    sql.NullString
	HeroImageURL sql.NullString
	Language     sql.NullString
	PublishedAt  sql.NullTime
	Status       sql.NullString
	DeletedAt    sql.NullTime
	Metadata     []byte
}

func (row articleRow) toRawRecord() (news.RawRecord, error) {
	record := news.RawRecord{
		ID:           nullString(row.ID),
		Title:        nullString(row.Title),
		Slug:         nullString(row.Slug),
		Summary:      nullString(row.Summary),
		Content:      nullString(row.Content),
		SourceURL:    nullString(row.SourceURL),
		HeroImageURL: nullString(row.HeroImageURL),
		Language:     nullString(row.Language),
		PublishedAt:  nullTime(row.PublishedAt),
		Status:       nullString(row.Status),
		DeletedAt:    nullTime(row.DeletedAt),
	}

	if row.ChannelID.Valid {
		channelID := row.ChannelID.Int64
		record.ChannelID = &channelID
	}

	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &record.Metadata); err != nil {
			return news.RawRecord{}, fmt.Errorf("failed to unmarshal metadata for article %s: %w", row.ID.String, err)
		}
	}

	return record, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// Timestamps are rendered the way PostgREST serializes timestamptz.
func nullTime(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	formatted := t.Time.UTC().Format(time.RFC3339Nano)
	return &formatted
}
