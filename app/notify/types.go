package notify

import (
	"context"
	"time"
)

const (
	DefaultChannelID   = "news_notification_channel"
	DefaultChannelName = "News Notifications"
)

type Importance string

const ImportanceDefault Importance = "default"

type Channel struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Importance Importance `json:"importance"`
}

// DefaultChannel is the channel every news notification is posted to.
var DefaultChannel = Channel{
	ID:         DefaultChannelID,
	Name:       DefaultChannelName,
	Importance: ImportanceDefault,
}

type Notification struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	DeepLink  string            `json:"deep_link,omitempty"`
	ChannelID string            `json:"channel_id"`
	Data      map[string]string `json:"data,omitempty"`
}

// Surface is where notifications end up: the device tray, a chat relay, a
// log. CreateChannel must be idempotent.
type Surface interface {
	CreateChannel(ctx context.Context, channel Channel) error
	Notify(ctx context.Context, notification Notification) error
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ChannelID string    `json:"channel_id"`
	Screen    string    `json:"screen"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}
