package push

import (
	"context"
	"errors"
)

// Platform is the messaging vendor: it issues the device token and manages
// topic membership for it.
type Platform interface {
	Token(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, token, topic string) error
	Unsubscribe(ctx context.Context, token, topic string) error
}

// DeviceRegistrar tells the news API which token belongs to this device.
type DeviceRegistrar interface {
	SetToken(ctx context.Context, token, deviceType, userID string) error
}

// Queue accepts work that follows a token rotation: registering the device
// and subscribing the configured topics for the new token.
type Queue interface {
	QueueRegistration(token string) error
	QueueTopics(token string) error
}

var ErrEmptyEvent = errors.New("event carries no token, notification or data")

// Event is one inbound push delivery. Token is set on rotation; Notification
// and Data may both be present on the same message.
type Event struct {
	MessageID    string               `json:"message_id,omitempty"`
	From         string               `json:"from,omitempty"`
	Token        string               `json:"token,omitempty"`
	Notification *NotificationPayload `json:"notification,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
}

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (e Event) Empty() bool {
	return e.Token == "" && e.Notification == nil && len(e.Data) == 0
}
