package session

import (
	"chesstral/internal/commentary"
	"chesstral/internal/engine"
)

type EventType int

const (
	// EventUpdated covers any visible change without a more specific type
	EventUpdated EventType = iota
	EventMoveCommitted
	EventTruncated
	EventReset
	EventFinished
	EventRated
)

func (t EventType) String() string {
	switch t {
	case EventUpdated:
		return "updated"
	case EventMoveCommitted:
		return "move_committed"
	case EventTruncated:
		return "truncated"
	case EventReset:
		return "reset"
	case EventFinished:
		return "finished"
	case EventRated:
		return "rated"
	default:
		return "unknown"
	}
}

// Event is delivered to the observer after the session lock is released
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Move     *MoveRecord
	Entry    *commentary.Entry
	Rating   *engine.Rating
}

type pending struct {
	task     Task
	onReject func(error)
}

// effects collects what an operation must announce and dispatch once unlocked
type effects struct {
	events []Event
	tasks  []pending
}

func (fx *effects) emit(e Event) {
	fx.events = append(fx.events, e)
}

func (fx *effects) run(t Task, onReject func(error)) {
	fx.tasks = append(fx.tasks, pending{task: t, onReject: onReject})
}
