package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/lysyi3m/news-relay/app/push"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeSubscribeTopic, "breaking")

	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.GetSubject() != "breaking" {
		t.Errorf("Expected subject 'breaking', got %q", task.GetSubject())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected %d max retries, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}
	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry to be allowed at %d", i)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
}

func TestEnsureTokenTask(t *testing.T) {
	ctx := context.Background()

	registrar := &MockRegistrar{token: "tok"}
	if err := NewEnsureTokenTask(registrar).Execute(ctx); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(registrar.registered) != 1 {
		t.Errorf("Expected token registration, got %v", registrar.registered)
	}

	noPlatform := &MockRegistrar{tokenErr: push.ErrNoPlatform}
	if err := NewEnsureTokenTask(noPlatform).Execute(ctx); err != nil {
		t.Errorf("Expected missing platform to be a no-op, got %v", err)
	}
	if len(noPlatform.registered) != 0 {
		t.Error("Expected no registration without a token")
	}

	failing := &MockRegistrar{tokenErr: errors.New("unavailable")}
	if err := NewEnsureTokenTask(failing).Execute(ctx); err == nil {
		t.Error("Expected error when the token cannot be obtained")
	}
}

func TestTopicTask(t *testing.T) {
	ctx := context.Background()

	registrar := &MockRegistrar{topicResult: true}
	if err := NewSubscribeTopicTask("breaking", registrar).Execute(ctx); err != nil {
		t.Errorf("Expected subscribe to succeed, got %v", err)
	}
	if err := NewUnsubscribeTopicTask("breaking", registrar).Execute(ctx); err != nil {
		t.Errorf("Expected unsubscribe to succeed, got %v", err)
	}
	if len(registrar.subscribed) != 1 || len(registrar.unsubscribed) != 1 {
		t.Errorf("Unexpected calls: %v / %v", registrar.subscribed, registrar.unsubscribed)
	}

	refused := &MockRegistrar{topicResult: false}
	if err := NewSubscribeTopicTask("breaking", refused).Execute(ctx); err == nil {
		t.Error("Expected error when platform does not acknowledge")
	}
}
