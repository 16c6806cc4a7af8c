package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chesstral/internal/session"
)

var (
	ErrQueueFull     = errors.New("queue is full")
	ErrQueueShutdown = errors.New("queue is shutting down")
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 100
	defaultTimeout   = time.Minute
)

// TaskQueue runs session tasks on a fixed worker pool. It implements
// session.Dispatcher; a full queue rejects instead of blocking.
type TaskQueue struct {
	tasks   chan session.Task
	workers int
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// QueueConfig sizes the pool; zero values take defaults
type QueueConfig struct {
	Workers     int
	Size        int
	TaskTimeout time.Duration
	Logger      *zap.Logger
}

// NewTaskQueue creates a queue and starts its workers
func NewTaskQueue(cfg QueueConfig) *TaskQueue {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Size < 1 {
		cfg.Size = defaultQueueSize
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &TaskQueue{
		tasks:   make(chan session.Task, cfg.Size),
		workers: cfg.Workers,
		timeout: cfg.TaskTimeout,
		logger:  cfg.Logger.Named("queue"),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// worker processes tasks until the channel closes
func (q *TaskQueue) worker(id int) {
	defer q.wg.Done()

	for task := range q.tasks {
		q.process(id, task)
	}
}

// process runs one task under its own timeout, derived from the queue
// context so shutdown cancels in-flight calls
func (q *TaskQueue) process(id int, task session.Task) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked",
				zap.Int("worker", id),
				zap.String("kind", string(task.Kind)),
				zap.String("session", task.SessionID),
				zap.Any("panic", r),
			)
		}
	}()

	task.Run(ctx)

	q.logger.Debug("task done",
		zap.Int("worker", id),
		zap.String("kind", string(task.Kind)),
		zap.String("session", task.SessionID),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Dispatch adds a task to the queue
func (q *TaskQueue) Dispatch(task session.Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueShutdown
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("%w: %d tasks pending", ErrQueueFull, len(q.tasks))
	}
}

// Len returns the number of queued tasks
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Shutdown stops accepting tasks, lets queued ones run and waits for the
// workers. In-flight tasks are cancelled when the timeout expires.
func (q *TaskQueue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-time.After(timeout):
		q.cancel()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
