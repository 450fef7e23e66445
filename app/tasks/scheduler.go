package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/news-relay/app/metrics"
	"github.com/lysyi3m/news-relay/app/push"
)

var _ push.Queue = (*Scheduler)(nil)

var ErrQueueFull = errors.New("task queue is full")

const (
	queueSize       = 300
	taskTimeout     = 2 * time.Minute
	maxRetryBackoff = 30 * time.Second
)

type Scheduler struct {
	registrar   Registrar
	topics      []string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler builds a scheduler that keeps the push token registered and
// the configured topics subscribed. A zero interval disables the periodic
// token check.
func NewScheduler(registrar Registrar, topics []string, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		registrar:   registrar,
		topics:      topics,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.enqueueStartupTasks()

	if s.interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.EnqueueTask(NewEnsureTokenTask(s.registrar)); err != nil {
					slog.Warn("Failed to enqueue EnsureTokenTask", "error", err)
				}
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers to exit. Tasks still
// queued are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		metrics.TaskQueueDepth.Set(float64(len(s.taskQueue)))
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) QueueRegistration(token string) error {
	return s.EnqueueTask(NewRegisterTokenTask(token, s.registrar))
}

// QueueTopics subscribes the configured topics again. Subscribe tasks use the
// saved token, which is the rotated one by the time they run.
func (s *Scheduler) QueueTopics(token string) error {
	slog.Debug("Subscribing configured topics for new token", "count", len(s.topics))
	return s.enqueueTopics()
}

func (s *Scheduler) enqueueStartupTasks() {
	if err := s.EnqueueTask(NewEnsureTokenTask(s.registrar)); err != nil {
		slog.Warn("Failed to enqueue EnsureTokenTask", "error", err)
	}

	slog.Debug("Subscribing configured topics", "count", len(s.topics))

	if err := s.enqueueTopics(); err != nil {
		slog.Warn("Failed to enqueue topic subscriptions", "error", err)
	}
}

func (s *Scheduler) enqueueTopics() error {
	var errs []error
	for _, topic := range s.topics {
		if err := s.EnqueueTask(NewSubscribeTopicTask(topic, s.registrar)); err != nil {
			slog.Warn("Failed to enqueue SubscribeTopicTask", "topic", topic, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			metrics.TaskQueueDepth.Set(float64(len(s.taskQueue)))
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		slog.Debug("Task completed", "worker_id", workerID, "type", string(task.GetType()), "subject", task.GetSubject(), "duration", task.GetDuration())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryBackoff(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryBackoff doubles from one second and is capped at maxRetryBackoff.
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > maxRetryBackoff {
		delay = maxRetryBackoff
	}
	return delay
}
