// Package session implements the game session state machine: mode and move
// list, the navigation cursor, and coordination of remote engine work.
//
// A mutex serialises every mutation. Remote calls run without the lock and
// carry the generation they were issued under; any reset-class transition
// bumps the generation so late results are discarded.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chesstral/internal/commentary"
	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/position"
)

type MoveRequester interface {
	RequestMove(ctx context.Context, q engine.MoveQuery) (engine.MoveResult, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (engine.Evaluation, error)
}

type RatingSubmitter interface {
	SubmitRating(ctx context.Context, r engine.Rating) error
}

// MoveRecord is one committed ply
type MoveRecord struct {
	Ply        int
	MoveNumber int
	Color      core.Color
	SAN        string
	UCI        string
	Position   position.Position
}

func (m MoveRecord) FEN() string {
	return m.Position.FEN()
}

type Config struct {
	ID           string
	Kind         core.Kind
	HumanSide    core.Color
	Engine       core.EngineSelection
	EvalDepth    int
	AutoEvaluate bool
	ContextOptIn bool
}

type Deps struct {
	Mover      MoveRequester
	Evaluator  Evaluator
	Rater      RatingSubmitter
	Dispatcher Dispatcher
	Observer   func(Event)
	Logger     *zap.Logger
}

type Session struct {
	id   string
	kind core.Kind
	cfg  Config
	deps Deps

	mu           sync.Mutex
	mode         core.Mode
	humanSide    core.Color
	engine       core.EngineSelection
	initial      position.Position
	moves        []MoveRecord
	cursor       int
	result       string
	reason       position.Reason
	thinking     bool
	generation   uint64
	version      uint64
	lastError    string
	evaluation   *engine.Evaluation
	conversation json.RawMessage
	log          commentary.Log
	updatedAt    time.Time
}

// New creates a session in Setup with the standard initial position
func New(cfg Config, deps Deps) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.HumanSide != core.ColorWhite && cfg.HumanSide != core.ColorBlack {
		cfg.HumanSide = core.ColorBlack
	}
	if cfg.Engine.Type == "" {
		cfg.Engine = core.DefaultEngine()
	}
	if cfg.EvalDepth <= 0 {
		cfg.EvalDepth = engine.DefaultDepth
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = GoDispatcher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger = deps.Logger.With(zap.String("session", cfg.ID))

	return &Session{
		id:        cfg.ID,
		kind:      cfg.Kind,
		cfg:       cfg,
		deps:      deps,
		mode:      core.ModeSetup,
		humanSide: cfg.HumanSide,
		engine:    cfg.Engine,
		initial:   position.Start(),
		cursor:    -1,
		updatedAt: time.Now().UTC(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Kind() core.Kind {
	return s.kind
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Kind:       s.kind,
		Mode:       s.mode,
		HumanSide:  s.humanSide,
		Engine:     s.engine,
		Initial:    s.initial,
		Position:   s.displayedLocked(),
		Live:       s.isLiveLocked(),
		LivePos:    s.livePositionLocked(),
		Moves:      append([]MoveRecord(nil), s.moves...),
		Cursor:     s.cursor,
		Thinking:   s.thinking,
		Result:     s.result,
		Reason:     s.reason,
		LastError:  s.lastError,
		Commentary: s.log.Entries(),
		Version:    s.version,
		Generation: s.generation,
		UpdatedAt:  s.updatedAt,
	}
	if ev := s.evaluation; ev != nil && ev.FEN == snap.Position.FEN() {
		cp := *ev
		cp.PV = append([]string(nil), ev.PV...)
		snap.Evaluation = &cp
	}
	return snap
}

// unlockAndFlush seals pending events with a snapshot, releases the lock,
// then notifies the observer and dispatches tasks in that order.
func (s *Session) unlockAndFlush(fx *effects) {
	if len(fx.events) > 0 {
		s.updatedAt = time.Now().UTC()
		snap := s.snapshotLocked()
		for i := range fx.events {
			fx.events[i].Snapshot = snap
		}
	}
	s.mu.Unlock()

	if obs := s.deps.Observer; obs != nil {
		for _, e := range fx.events {
			obs(e)
		}
	}
	for _, p := range fx.tasks {
		if err := s.deps.Dispatcher.Dispatch(p.task); err != nil {
			s.deps.Logger.Warn("task rejected",
				zap.String("kind", string(p.task.Kind)),
				zap.Error(err),
			)
			if p.onReject != nil {
				p.onReject(err)
			}
		}
	}
}

// touchLocked records a visible change
func (s *Session) touchLocked(fx *effects) {
	s.version++
	fx.emit(Event{Type: EventUpdated})
}

func (s *Session) isLiveLocked() bool {
	return s.cursor == len(s.moves)-1
}

func (s *Session) livePositionLocked() position.Position {
	if len(s.moves) == 0 {
		return s.initial
	}
	return s.moves[len(s.moves)-1].Position
}

func (s *Session) displayedLocked() position.Position {
	if s.cursor < 0 || s.cursor >= len(s.moves) {
		return s.initial
	}
	return s.moves[s.cursor].Position
}

func (s *Session) historyLocked() []string {
	out := make([]string, len(s.moves))
	for i, m := range s.moves {
		out[i] = m.SAN
	}
	return out
}

// clearLocked discards the game and invalidates in-flight work
func (s *Session) clearLocked(initial position.Position) {
	s.generation++
	s.initial = initial
	s.moves = nil
	s.cursor = -1
	s.result = ""
	s.reason = position.ReasonNone
	s.thinking = false
	s.lastError = ""
	s.evaluation = nil
	s.conversation = nil
	s.log.Reset()
}

// enterActiveLocked opens the current position for play and lets the engine
// move first when it has the move
func (s *Session) enterActiveLocked(fx *effects) {
	s.mode = core.ModeActive
	live := s.livePositionLocked()
	if live.Turn() != s.humanSide {
		s.scheduleAILocked(fx)
	}
}

func (s *Session) finishLocked(result string, reason position.Reason, fx *effects) {
	s.mode = core.ModeFinished
	s.result = result
	s.reason = reason
	s.thinking = false
	s.evaluation = nil
	s.version++
	fx.emit(Event{Type: EventFinished})
	s.deps.Logger.Info("game finished", zap.String("result", result), zap.String("reason", reason.String()))
}

// commitLocked is the single path by which a move enters the game: the move
// record first, then its commentary, then the cursor, then terminal detection
// and the engine continuation.
func (s *Session) commitLocked(next position.Position, author, rationale, raw string, fx *effects) {
	prev := s.livePositionLocked()

	rec := MoveRecord{
		Ply:        len(s.moves) + 1,
		MoveNumber: fullMoveNumber(prev.FEN()),
		Color:      prev.Turn(),
		SAN:        next.LastSAN(),
		UCI:        next.LastUCI(),
		Position:   next,
	}
	s.moves = append(s.moves, rec)

	entry := commentary.NewEntry(
		author,
		commentary.MoveNumber(rec.MoveNumber, rec.Color == core.ColorWhite),
		rec.SAN,
		rec.SAN,
		rationale,
		next.FEN(),
		raw,
	)
	s.log.Append(entry)

	// moves land at the live end even if the viewer was reviewing
	s.cursor = len(s.moves) - 1
	s.evaluation = nil
	s.lastError = ""
	s.version++
	fx.emit(Event{Type: EventMoveCommitted, Move: &rec, Entry: &entry})

	s.deps.Logger.Debug("move committed",
		zap.Int("ply", rec.Ply),
		zap.String("san", rec.SAN),
		zap.String("by", author),
	)

	if st := position.Derive(next); st.IsGameOver {
		s.finishLocked(st.Result, st.Reason, fx)
		return
	}
	if next.Turn() != s.humanSide {
		s.scheduleAILocked(fx)
	}
	if s.cfg.AutoEvaluate {
		s.scheduleEvalLocked(fx)
	}
}

func (s *Session) moveQueryLocked() engine.MoveQuery {
	q := engine.MoveQuery{
		FEN:          s.livePositionLocked().FEN(),
		History:      s.historyLocked(),
		Engine:       s.engine,
		ContextOptIn: s.cfg.ContextOptIn,
	}
	if s.cfg.ContextOptIn && len(s.conversation) > 0 {
		q.Conversation = append(json.RawMessage(nil), s.conversation...)
	}
	return q
}

// fullMoveNumber reads the sixth FEN field
func fullMoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Snapshot is an immutable view of a session
type Snapshot struct {
	ID         string
	Kind       core.Kind
	Mode       core.Mode
	HumanSide  core.Color
	Engine     core.EngineSelection
	Initial    position.Position
	Position   position.Position // at the cursor
	LivePos    position.Position // after the last move
	Live       bool
	Moves      []MoveRecord
	Cursor     int
	Thinking   bool
	Result     string
	Reason     position.Reason
	Evaluation *engine.Evaluation
	LastError  string
	Commentary []commentary.Entry
	Version    uint64
	Generation uint64
	UpdatedAt  time.Time
}

// Turn is the side to move in the displayed position
func (s Snapshot) Turn() core.Color {
	return s.Position.Turn()
}

// IsHumanTurn reports whether the human may move right now
func (s Snapshot) IsHumanTurn() bool {
	return s.Mode == core.ModeActive && s.Live && !s.Thinking && s.LivePos.Turn() == s.HumanSide
}

func (s Snapshot) History() []string {
	out := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		out[i] = m.SAN
	}
	return out
}

func (s Snapshot) String() string {
	return fmt.Sprintf("session %s %s/%s ply %d cursor %d v%d", s.ID, s.Kind, s.Mode, len(s.Moves), s.Cursor, s.Version)
}
