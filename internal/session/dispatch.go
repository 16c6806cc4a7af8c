package session

import (
	"context"
	"time"
)

type TaskKind string

const (
	TaskAIMove   TaskKind = "ai_move"
	TaskEvaluate TaskKind = "evaluate"
	TaskRating   TaskKind = "rating"
)

// Task is a unit of remote work issued by a session
type Task struct {
	Kind      TaskKind
	SessionID string
	Run       func(ctx context.Context)
}

// Dispatcher runs tasks off the caller's goroutine. A non-nil error means the
// task will never run.
type Dispatcher interface {
	Dispatch(t Task) error
}

// GoDispatcher runs each task on its own goroutine
type GoDispatcher struct {
	Timeout time.Duration
}

func (d GoDispatcher) Dispatch(t Task) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		t.Run(ctx)
	}()
	return nil
}
