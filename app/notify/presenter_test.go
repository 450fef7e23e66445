package notify

import (
	"context"
	"errors"
	"testing"
)

type recordingSurface struct {
	channels      []Channel
	notifications []Notification
	channelErr    error
	notifyErr     error
}

func (s *recordingSurface) CreateChannel(ctx context.Context, channel Channel) error {
	if s.channelErr != nil {
		return s.channelErr
	}
	s.channels = append(s.channels, channel)
	return nil
}

func (s *recordingSurface) Notify(ctx context.Context, notification Notification) error {
	if s.notifyErr != nil {
		return s.notifyErr
	}
	s.notifications = append(s.notifications, notification)
	return nil
}

func TestPresenter_Present(t *testing.T) {
	surface := &recordingSurface{}
	presenter := NewPresenter(surface)

	err := presenter.Present(context.Background(), "Breaking", "Something happened", "https://example.com/a1")
	if err != nil {
		t.Fatalf("Present returned error: %v", err)
	}

	if len(surface.channels) != 1 {
		t.Fatalf("Expected channel to be ensured once, got %d", len(surface.channels))
	}
	channel := surface.channels[0]
	if channel.ID != "news_notification_channel" || channel.Name != "News Notifications" || channel.Importance != ImportanceDefault {
		t.Errorf("Unexpected channel: %+v", channel)
	}

	if len(surface.notifications) != 1 {
		t.Fatalf("Expected one notification, got %d", len(surface.notifications))
	}
	n := surface.notifications[0]
	if n.Title != "Breaking" || n.Body != "Something happened" || n.DeepLink != "https://example.com/a1" {
		t.Errorf("Unexpected notification: %+v", n)
	}
	if n.ChannelID != DefaultChannelID {
		t.Errorf("Expected notification on %s, got %s", DefaultChannelID, n.ChannelID)
	}
}

func TestPresenter_Present_EmptyDeepLink(t *testing.T) {
	surface := &recordingSurface{}
	presenter := NewPresenter(surface)

	if err := presenter.Present(context.Background(), "Title", "Body", ""); err != nil {
		t.Fatalf("Present returned error: %v", err)
	}

	if len(surface.notifications) != 1 || surface.notifications[0].DeepLink != "" {
		t.Errorf("Expected one notification without deep link, got %+v", surface.notifications)
	}
}

func TestPresenter_Present_ChannelEnsuredEveryTime(t *testing.T) {
	surface := &recordingSurface{}
	presenter := NewPresenter(surface)

	for i := 0; i < 3; i++ {
		if err := presenter.Present(context.Background(), "T", "B", ""); err != nil {
			t.Fatalf("Present returned error: %v", err)
		}
	}

	if len(surface.channels) != 3 || len(surface.notifications) != 3 {
		t.Errorf("Expected 3 channel ensures and 3 notifications, got %d and %d",
			len(surface.channels), len(surface.notifications))
	}
}

func TestPresenter_Present_Errors(t *testing.T) {
	channelErr := errors.New("channel refused")
	surface := &recordingSurface{channelErr: channelErr}

	err := NewPresenter(surface).Present(context.Background(), "T", "B", "")
	if !errors.Is(err, channelErr) {
		t.Errorf("Expected channel error, got %v", err)
	}
	if len(surface.notifications) != 0 {
		t.Error("Expected no notification when the channel cannot be created")
	}

	notifyErr := errors.New("tray full")
	surface = &recordingSurface{notifyErr: notifyErr}

	err = NewPresenter(surface).Present(context.Background(), "T", "B", "")
	if !errors.Is(err, notifyErr) {
		t.Errorf("Expected notify error, got %v", err)
	}
}
