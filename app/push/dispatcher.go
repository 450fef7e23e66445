package push

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-relay/app/metrics"
	"github.com/lysyi3m/news-relay/app/notify"
)

const (
	DefaultTitle = "News Update"
	DefaultBody  = "New article available"
)

type Presenter interface {
	PresentNotification(ctx context.Context, notification notify.Notification) error
}

var _ Presenter = (*notify.Presenter)(nil)

// Dispatcher routes inbound push events: token rotations go to the
// registrar, notification and data payloads to the presenter.
type Dispatcher struct {
	presenter Presenter
	registrar *Registrar
	queue     Queue
}

// NewDispatcher accepts a nil queue, in which case rotated tokens are
// registered inline.
func NewDispatcher(presenter Presenter, registrar *Registrar, queue Queue) *Dispatcher {
	return &Dispatcher{
		presenter: presenter,
		registrar: registrar,
		queue:     queue,
	}
}

// Handle presents both payloads when a message carries both; there is no
// de-duplication between them.
func (d *Dispatcher) Handle(ctx context.Context, event Event) error {
	if event.Empty() {
		return ErrEmptyEvent
	}

	var errs []error

	if event.Token != "" {
		if err := d.rotate(ctx, event.Token); err != nil {
			errs = append(errs, err)
		}
	}

	if event.Notification != nil {
		n := notify.Notification{
			Title: cmp.Or(event.Notification.Title, DefaultTitle),
			Body:  cmp.Or(event.Notification.Body, DefaultBody),
		}
		if err := d.present(ctx, "notification", n); err != nil {
			errs = append(errs, err)
		}
	}

	if len(event.Data) > 0 {
		n := notify.Notification{
			Title:    cmp.Or(event.Data["title"], DefaultTitle),
			Body:     cmp.Or(event.Data["body"], DefaultBody),
			DeepLink: event.Data["article_url"],
			Data:     event.Data,
		}
		if err := d.present(ctx, "data", n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) rotate(ctx context.Context, token string) error {
	if err := d.registrar.OnNewToken(ctx, token); err != nil {
		return err
	}

	if d.queue == nil {
		return d.registrar.RegisterDevice(ctx, token)
	}

	if err := d.queue.QueueRegistration(token); err != nil {
		return fmt.Errorf("failed to queue token registration: %w", err)
	}

	// Topic membership belongs to a single token, so a new token starts with none.
	if err := d.queue.QueueTopics(token); err != nil {
		return fmt.Errorf("failed to queue topic subscriptions: %w", err)
	}

	return nil
}

func (d *Dispatcher) present(ctx context.Context, source string, n notify.Notification) error {
	if err := d.presenter.PresentNotification(ctx, n); err != nil {
		metrics.NotificationsPresented.WithLabelValues(source, metrics.StatusError).Inc()
		slog.Error("Failed to present notification", "source", source, "title", n.Title, "error", err)
		return err
	}

	metrics.NotificationsPresented.WithLabelValues(source, metrics.StatusSuccess).Inc()
	return nil
}
