package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lysyi3m/news-relay/app/push"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []push.Event
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, event push.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func runConsumer(t *testing.T, reader *fakeReader, handler Handler, wantCommits int) {
	t.Helper()

	consumer := &Consumer{reader: reader, handler: handler, backoff: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for reader.committedCount() < wantCommits && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not stop after cancel")
	}
}

func TestConsumer_Run(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{
			{Offset: 1, Value: []byte(`{"notification": {"title": "Hi", "body": "There"}}`)},
			{Offset: 2, Value: []byte(`not json`)},
			{Offset: 3, Value: []byte(`{"data": {"article_url": "https://example.com/a1"}}`)},
		},
		fetchErrs: []error{errors.New("broker unavailable")},
	}
	handler := &recordingHandler{}

	runConsumer(t, reader, handler, 3)

	if len(handler.events) != 2 {
		t.Fatalf("Expected 2 decoded events, got %d", len(handler.events))
	}
	if handler.events[0].Notification == nil || handler.events[0].Notification.Title != "Hi" {
		t.Errorf("Unexpected first event: %+v", handler.events[0])
	}
	if handler.events[1].Data["article_url"] != "https://example.com/a1" {
		t.Errorf("Unexpected second event: %+v", handler.events[1])
	}
	if reader.committedCount() != 3 {
		t.Errorf("Expected every message to be committed, got %d", reader.committedCount())
	}
}

func TestConsumer_HandlerFailureStillCommits(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{{Offset: 7, Value: []byte(`{"token": "abc"}`)}},
	}
	handler := &recordingHandler{err: errors.New("surface down")}

	runConsumer(t, reader, handler, 1)

	if reader.committedCount() != 1 {
		t.Errorf("Expected failed event to be committed, got %d", reader.committedCount())
	}
}
