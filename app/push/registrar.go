package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/news-relay/app/metrics"
	"github.com/lysyi3m/news-relay/app/prefs"
)

const (
	RegistrationNamespace = "NotificationPrefs"
	LastRegisteredKey     = "last_registered_token"
)

var ErrNoPlatform = errors.New("messaging platform is not configured")

// Registrar owns the device's push identity: the saved token, its
// registration with the news API and topic membership.
type Registrar struct {
	tokens     *TokenStore
	state      prefs.Store
	platform   Platform
	device     DeviceRegistrar
	deviceType string
	userID     string
}

type RegistrarOption func(*Registrar)

func WithDevice(device DeviceRegistrar, deviceType, userID string) RegistrarOption {
	return func(r *Registrar) {
		r.device = device
		r.deviceType = deviceType
		r.userID = userID
	}
}

func WithPlatform(platform Platform) RegistrarOption {
	return func(r *Registrar) {
		r.platform = platform
	}
}

func NewRegistrar(store prefs.Store, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		tokens: NewTokenStore(store),
		state:  store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registrar) Tokens() *TokenStore {
	return r.tokens
}

// CurrentToken prefers the saved token and only asks the platform when none
// has been saved. A token fetched from the platform is saved before it is
// returned.
func (r *Registrar) CurrentToken(ctx context.Context) (string, error) {
	token, ok, err := r.tokens.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read saved token: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}

	if r.platform == nil {
		return "", ErrNoPlatform
	}

	token, err = r.platform.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch platform token: %w", err)
	}
	if token == "" {
		return "", ErrEmptyToken
	}

	if err := r.tokens.SaveToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to save platform token: %w", err)
	}

	slog.Info("Push token fetched from platform")

	return token, nil
}

// OnNewToken saves a rotated token. Registering it with the news API is a
// separate step, see RegisterDevice.
func (r *Registrar) OnNewToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	if err := r.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to save rotated token: %w", err)
	}

	slog.Info("Push token rotated")

	return nil
}

// RegisterDevice sends token to the news API unless it is the token that was
// last registered successfully.
func (r *Registrar) RegisterDevice(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if r.device == nil {
		metrics.TokenRegistrations.WithLabelValues(metrics.StatusSkipped).Inc()
		slog.Debug("No device registrar configured, skipping token registration")
		return nil
	}

	last, _, err := r.state.Get(ctx, RegistrationNamespace, LastRegisteredKey)
	if err != nil {
		return fmt.Errorf("failed to read last registered token: %w", err)
	}
	if last == token {
		metrics.TokenRegistrations.WithLabelValues(metrics.StatusSkipped).Inc()
		slog.Debug("Token already registered, skipping")
		return nil
	}

	if err := r.device.SetToken(ctx, token, r.deviceType, r.userID); err != nil {
		metrics.TokenRegistrations.WithLabelValues(metrics.StatusError).Inc()
		return err
	}

	if err := r.state.Set(ctx, RegistrationNamespace, LastRegisteredKey, token); err != nil {
		return fmt.Errorf("failed to record registered token: %w", err)
	}

	metrics.TokenRegistrations.WithLabelValues(metrics.StatusSuccess).Inc()
	slog.Info("Push token registered with news API", "device_type", r.deviceType)

	return nil
}

// Subscribe reports whether the platform acknowledged the subscription.
// Failures are logged, never returned.
func (r *Registrar) Subscribe(ctx context.Context, topic string) bool {
	return r.topicOperation(ctx, "subscribe", topic)
}

func (r *Registrar) Unsubscribe(ctx context.Context, topic string) bool {
	return r.topicOperation(ctx, "unsubscribe", topic)
}

func (r *Registrar) topicOperation(ctx context.Context, operation, topic string) bool {
	if r.platform == nil {
		metrics.TopicOperations.WithLabelValues(operation, metrics.StatusRejected).Inc()
		slog.Warn("Topic operation without platform", "operation", operation, "topic", topic)
		return false
	}

	token, err := r.CurrentToken(ctx)
	if err != nil {
		metrics.TopicOperations.WithLabelValues(operation, metrics.StatusError).Inc()
		slog.Warn("Topic operation failed", "operation", operation, "topic", topic, "error", err)
		return false
	}

	if operation == "subscribe" {
		err = r.platform.Subscribe(ctx, token, topic)
	} else {
		err = r.platform.Unsubscribe(ctx, token, topic)
	}
	if err != nil {
		metrics.TopicOperations.WithLabelValues(operation, metrics.StatusError).Inc()
		slog.Warn("Topic operation failed", "operation", operation, "topic", topic, "error", err)
		return false
	}

	metrics.TopicOperations.WithLabelValues(operation, metrics.StatusSuccess).Inc()
	slog.Info("Topic operation succeeded", "operation", operation, "topic", topic)

	return true
}
