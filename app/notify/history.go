package notify

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/news-relay/app/database"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var ErrNotFound = errors.New("notification not found")

// History is the local record of every notification shown on the device.
type History struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistory(db *sql.DB) (*History, error) {
	if err := database.MigrateSQLite(db, migrationFS, "migrations", "notify_migrations"); err != nil {
		return nil, err
	}
	return &History{db: db, now: time.Now}, nil
}

func (h *History) Save(ctx context.Context, entry HistoryEntry) (int64, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}

	res, err := h.db.ExecContext(ctx, `
		INSERT INTO notifications (article_id, title, message, type, channel_id, screen, data, created_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ArticleID, entry.Title, entry.Message, entry.Type, entry.ChannelID,
		entry.Screen, entry.Data, createdAt.UnixMilli(), entry.IsRead)
	if err != nil {
		return 0, fmt.Errorf("failed to save notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}

	return id, nil
}

// List returns entries newest first. A non-positive limit returns all of them.
func (h *History) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, article_id, title, message, type, channel_id, screen, data, created_at, is_read
		FROM notifications
		ORDER BY created_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var entry HistoryEntry
		var createdAt int64
		err := rows.Scan(&entry.ID, &entry.ArticleID, &entry.Title, &entry.Message, &entry.Type,
			&entry.ChannelID, &entry.Screen, &entry.Data, &createdAt, &entry.IsRead)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		entry.CreatedAt = time.UnixMilli(createdAt).In(time.Local)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return entries, nil
}

func (h *History) MarkRead(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d as read: %w", id, err)
	}
	return expectOne(res, id)
}

func (h *History) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := h.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return res.RowsAffected()
}

func (h *History) Delete(ctx context.Context, id int64) error {
	res, err := h.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification %d: %w", id, err)
	}
	return expectOne(res, id)
}

func (h *History) Clear(ctx context.Context) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM notifications`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	return res.RowsAffected()
}

func (h *History) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// EnsureChannel records a channel the first time it is created. Later calls
// leave the stored name and importance untouched.
func (h *History) EnsureChannel(ctx context.Context, channel Channel) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO notification_channels (id, name, importance, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, channel.ID, channel.Name, string(channel.Importance), h.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create channel %s: %w", channel.ID, err)
	}
	return nil
}

func (h *History) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT id, name, importance FROM notification_channels ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var channel Channel
		var importance string
		if err := rows.Scan(&channel.ID, &channel.Name, &importance); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channel.Importance = Importance(importance)
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}

func expectOne(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
