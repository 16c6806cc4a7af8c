package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"chesstral/internal/core"
	"chesstral/internal/engine"
)

type reply struct {
	move     string
	thoughts string
	raw      string
	conv     json.RawMessage
	err      error
}

type fakeMover struct {
	mu      sync.Mutex
	replies []reply
	queries []engine.MoveQuery
}

func (f *fakeMover) RequestMove(_ context.Context, q engine.MoveQuery) (engine.MoveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if len(f.replies) == 0 {
		return engine.MoveResult{}, &engine.EngineMoveFailure{Kind: engine.FailureApplication, Message: "no scripted reply"}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.err != nil {
		return engine.MoveResult{}, r.err
	}
	return engine.MoveResult{
		Move:         r.move,
		Rationale:    r.thoughts,
		RawResponse:  r.raw,
		Confidence:   1,
		Engine:       q.Engine.Type,
		Conversation: r.conv,
	}, nil
}

func (f *fakeMover) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeMover) lastQuery() engine.MoveQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

// syncDispatcher runs tasks inline, after the session lock is released
type syncDispatcher struct{}

func (syncDispatcher) Dispatch(t Task) error {
	t.Run(context.Background())
	return nil
}

// manualDispatcher holds tasks until the test runs them
type manualDispatcher struct {
	mu    sync.Mutex
	tasks []Task
}

func (d *manualDispatcher) Dispatch(t Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, t)
	return nil
}

func (d *manualDispatcher) runAll() {
	for {
		d.mu.Lock()
		if len(d.tasks) == 0 {
			d.mu.Unlock()
			return
		}
		t := d.tasks[0]
		d.tasks = d.tasks[1:]
		d.mu.Unlock()
		t.Run(context.Background())
	}
}

func (d *manualDispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

type rejectDispatcher struct{}

func (rejectDispatcher) Dispatch(Task) error {
	return errors.New("queue full")
}

type fakeEvaluator struct {
	mu     sync.Mutex
	score  float64
	err    error
	calls  []string
	during func()
}

func (f *fakeEvaluator) Evaluate(_ context.Context, fen string, depth int) (engine.Evaluation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fen)
	during := f.during
	f.mu.Unlock()
	if during != nil {
		during()
	}
	if f.err != nil {
		return engine.Evaluation{}, f.err
	}
	return engine.Evaluation{FEN: fen, Score: f.score, Depth: depth, BestMove: "e2e4"}, nil
}

type fakeRater struct {
	mu      sync.Mutex
	ratings []engine.Rating
	err     error
}

func (f *fakeRater) SubmitRating(_ context.Context, r engine.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, r)
	return f.err
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) committed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == EventMoveCommitted {
			out = append(out, e.Move.SAN)
		}
	}
	return out
}

func newTestSession(kind core.Kind, human core.Color, mover *fakeMover, d Dispatcher) *Session {
	deps := Deps{Dispatcher: d}
	if mover != nil {
		deps.Mover = mover
	}
	return New(Config{Kind: kind, HumanSide: human}, deps)
}
