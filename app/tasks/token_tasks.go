package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-relay/app/push"
)

type Registrar interface {
	CurrentToken(ctx context.Context) (string, error)
	RegisterDevice(ctx context.Context, token string) error
	Subscribe(ctx context.Context, topic string) bool
	Unsubscribe(ctx context.Context, topic string) bool
}

var _ Registrar = (*push.Registrar)(nil)

// EnsureTokenTask makes sure a token is saved and registered with the news
// API. Registration is skipped by the registrar when nothing changed.
type EnsureTokenTask struct {
	Task
	registrar Registrar
}

func NewEnsureTokenTask(registrar Registrar) *EnsureTokenTask {
	return &EnsureTokenTask{
		Task:      NewTask(TaskTypeEnsureToken, ""),
		registrar: registrar,
	}
}

func (t *EnsureTokenTask) Execute(ctx context.Context) error {
	token, err := t.registrar.CurrentToken(ctx)
	if errors.Is(err, push.ErrNoPlatform) {
		slog.Debug("No messaging platform configured, skipping token check")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to obtain push token: %w", err)
	}

	return t.registrar.RegisterDevice(ctx, token)
}

type RegisterTokenTask struct {
	Task
	token     string
	registrar Registrar
}

func NewRegisterTokenTask(token string, registrar Registrar) *RegisterTokenTask {
	return &RegisterTokenTask{
		Task:      NewTask(TaskTypeRegisterToken, ""),
		token:     token,
		registrar: registrar,
	}
}

func (t *RegisterTokenTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.registrar.RegisterDevice(ctx, t.token); err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	return nil
}

// TopicTask subscribes or unsubscribes the device token. A false
// acknowledgment from the platform is treated as a retryable failure.
type TopicTask struct {
	Task
	registrar Registrar
}

func NewSubscribeTopicTask(topic string, registrar Registrar) *TopicTask {
	return &TopicTask{
		Task:      NewTask(TaskTypeSubscribeTopic, topic),
		registrar: registrar,
	}
}

func NewUnsubscribeTopicTask(topic string, registrar Registrar) *TopicTask {
	return &TopicTask{
		Task:      NewTask(TaskTypeUnsubscribeTopic, topic),
		registrar: registrar,
	}
}

func (t *TopicTask) Execute(ctx context.Context) error {
	var ok bool
	if t.Type == TaskTypeUnsubscribeTopic {
		ok = t.registrar.Unsubscribe(ctx, t.Subject)
	} else {
		ok = t.registrar.Subscribe(ctx, t.Subject)
	}

	if !ok {
		return fmt.Errorf("platform did not acknowledge %s for topic %s", t.Type, t.Subject)
	}
	return nil
}
