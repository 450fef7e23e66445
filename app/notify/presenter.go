package notify

import (
	"context"
	"fmt"
	"log/slog"
)

type Presenter struct {
	surface Surface
	channel Channel
}

func NewPresenter(surface Surface) *Presenter {
	return &Presenter{
		surface: surface,
		channel: DefaultChannel,
	}
}

// Present ensures the news channel exists and posts one notification to it.
// An empty deep link yields a notification without a tap target.
func (p *Presenter) Present(ctx context.Context, title, body, deepLink string) error {
	return p.PresentNotification(ctx, Notification{
		Title:    title,
		Body:     body,
		DeepLink: deepLink,
	})
}

func (p *Presenter) PresentNotification(ctx context.Context, notification Notification) error {
	if err := p.surface.CreateChannel(ctx, p.channel); err != nil {
		return fmt.Errorf("failed to create channel %s: %w", p.channel.ID, err)
	}

	notification.ChannelID = p.channel.ID

	if err := p.surface.Notify(ctx, notification); err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}

	slog.Debug("Notification presented", "channel", p.channel.ID, "title", notification.Title, "deep_link", notification.DeepLink)

	return nil
}
