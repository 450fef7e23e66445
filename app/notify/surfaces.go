package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	_ Surface = (*HistorySurface)(nil)
	_ Surface = (*TelegramSurface)(nil)
	_ Surface = (*LogSurface)(nil)
	_ Surface = (MultiSurface)(nil)
)

// HistorySurface stands in for the device tray: every notification is kept
// in History so it can be listed and marked read later.
type HistorySurface struct {
	history *History
}

func NewHistorySurface(history *History) *HistorySurface {
	return &HistorySurface{history: history}
}

func (s *HistorySurface) CreateChannel(ctx context.Context, channel Channel) error {
	return s.history.EnsureChannel(ctx, channel)
}

func (s *HistorySurface) Notify(ctx context.Context, notification Notification) error {
	entry := HistoryEntry{
		ArticleID: notification.Data["article_id"],
		Title:     notification.Title,
		Message:   notification.Body,
		Type:      notification.Data["type"],
		ChannelID: notification.Data["channel_id"],
		Screen:    notification.Data["screen"],
	}

	if len(notification.Data) > 0 {
		data, err := json.Marshal(notification.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		entry.Data = string(data)
	}

	_, err := s.history.Save(ctx, entry)
	return err
}

const telegramAPI = "https://api.telegram.org"

// TelegramSurface relays notifications to a chat through the Bot API.
type TelegramSurface struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

func NewTelegramSurface(botToken, chatID string) *TelegramSurface {
	return &TelegramSurface{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPI,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *TelegramSurface) CreateChannel(ctx context.Context, channel Channel) error {
	return nil
}

func (s *TelegramSurface) Notify(ctx context.Context, notification Notification) error {
	if s.botToken == "" || s.chatID == "" {
		return errors.New("telegram surface misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	form := url.Values{}
	form.Set("chat_id", s.chatID)
	form.Set("text", telegramText(notification))
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func telegramText(n Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(n.Body)
	}
	if n.DeepLink != "" {
		b.WriteString("\n")
		b.WriteString(n.DeepLink)
	}
	return b.String()
}

type LogSurface struct {
	logger *slog.Logger

	mu       sync.Mutex
	channels map[string]bool
}

func NewLogSurface(logger *slog.Logger) *LogSurface {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSurface{logger: logger, channels: make(map[string]bool)}
}

func (s *LogSurface) CreateChannel(ctx context.Context, channel Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channels[channel.ID] {
		return nil
	}
	s.channels[channel.ID] = true
	s.logger.Info("Notification channel created", "id", channel.ID, "name", channel.Name, "importance", channel.Importance)
	return nil
}

func (s *LogSurface) Notify(ctx context.Context, notification Notification) error {
	s.logger.Info("Notification",
		"channel", notification.ChannelID,
		"title", notification.Title,
		"body", notification.Body,
		"deep_link", notification.DeepLink)
	return nil
}

// MultiSurface fans out to every surface in order. Each one is tried even if
// an earlier one failed; the first error is returned.
type MultiSurface []Surface

func (m MultiSurface) CreateChannel(ctx context.Context, channel Channel) error {
	var first error
	for _, s := range m {
		if err := s.CreateChannel(ctx, channel); err != nil {
			slog.Warn("Surface failed to create channel", "channel", channel.ID, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (m MultiSurface) Notify(ctx context.Context, notification Notification) error {
	var first error
	for _, s := range m {
		if err := s.Notify(ctx, notification); err != nil {
			slog.Warn("Surface failed to post notification", "title", notification.Title, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
