package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chesstral/internal/commentary"
	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/position"
)

// Start moves a Setup session into play
func (s *Session) Start() error {
	s.mu.Lock()
	var fx effects
	if s.mode != core.ModeSetup {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	s.clearLocked(position.Start())
	s.enterActiveLocked(&fx)
	s.version++
	fx.emit(Event{Type: EventReset})
	s.unlockAndFlush(&fx)
	return nil
}

// playGuardLocked checks the preconditions shared by human and engine moves
func (s *Session) playGuardLocked() error {
	switch s.mode {
	case core.ModeSetup:
		return ErrNotActive
	case core.ModeFinished:
		return ErrGameOver
	}
	if !s.isLiveLocked() {
		return ErrNotLive
	}
	return nil
}

// SubmitHumanMove plays d for the human side at the live position
func (s *Session) SubmitHumanMove(d position.Descriptor) error {
	s.mu.Lock()
	var fx effects

	if err := s.playGuardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	live := s.livePositionLocked()
	if live.Turn() != s.humanSide {
		s.mu.Unlock()
		return ErrNotHumanTurn
	}
	if s.thinking {
		s.mu.Unlock()
		return ErrBusy
	}

	next, err := position.ApplyMove(live, d)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.commitLocked(next, commentary.HumanEngineName, "", "", &fx)
	s.unlockAndFlush(&fx)
	return nil
}

// RequestAIMove asks the engine for a move and waits for the result
func (s *Session) RequestAIMove(ctx context.Context) error {
	s.mu.Lock()
	var fx effects

	if err := s.playGuardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.livePositionLocked().Turn() == s.humanSide {
		s.mu.Unlock()
		return ErrNotAITurn
	}
	if s.thinking {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.deps.Mover == nil {
		s.mu.Unlock()
		return ErrNoEngine
	}

	s.thinking = true
	gen := s.generation
	q := s.moveQueryLocked()
	s.touchLocked(&fx)
	s.unlockAndFlush(&fx)

	return s.runAI(ctx, gen, q)
}

// scheduleAILocked marks the session busy and queues the engine continuation
func (s *Session) scheduleAILocked(fx *effects) {
	if s.deps.Mover == nil {
		s.lastError = ErrNoEngine.Error()
		return
	}
	s.thinking = true
	gen := s.generation
	q := s.moveQueryLocked()

	fx.run(Task{
		Kind:      TaskAIMove,
		SessionID: s.id,
		Run: func(ctx context.Context) {
			if err := s.runAI(ctx, gen, q); err != nil {
				var stale *StaleResponse
				if errors.As(err, &stale) {
					s.deps.Logger.Debug("discarded engine move", zap.Error(err))
					return
				}
				s.deps.Logger.Warn("engine move failed", zap.Error(err))
			}
		},
	}, func(err error) {
		s.abortAI(gen, err)
	})
}

// runAI performs the remote call and commits the result if it is still wanted
func (s *Session) runAI(ctx context.Context, gen uint64, q engine.MoveQuery) error {
	res, callErr := s.deps.Mover.RequestMove(ctx, q)

	s.mu.Lock()
	var fx effects
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		return &StaleResponse{Operation: "engine move", Issued: gen, Current: current}
	}

	if callErr != nil {
		failure := asMoveFailure(callErr, q.Engine.Type)
		s.failAILocked(failure, &fx)
		s.unlockAndFlush(&fx)
		return failure
	}

	next, err := position.ApplyMove(s.livePositionLocked(), position.Parse(res.Move))
	if err != nil {
		failure := &engine.EngineMoveFailure{
			Kind:    engine.FailureIllegalMove,
			Engine:  res.Engine,
			Message: fmt.Sprintf("engine proposed illegal move %q", res.Move),
			Err:     err,
		}
		s.failAILocked(failure, &fx)
		s.unlockAndFlush(&fx)
		return failure
	}

	s.thinking = false
	if s.cfg.ContextOptIn && len(res.Conversation) > 0 {
		s.conversation = res.Conversation
	}
	rationale := res.Rationale
	if rationale == "" {
		rationale = res.RawResponse
	}
	if rationale == "" {
		rationale = commentary.NoThoughts
	}
	s.commitLocked(next, q.Engine.DisplayName(), rationale, res.RawResponse, &fx)
	s.unlockAndFlush(&fx)
	return nil
}

func (s *Session) failAILocked(failure *engine.EngineMoveFailure, fx *effects) {
	s.thinking = false
	s.lastError = failure.Error()
	s.touchLocked(fx)
	s.deps.Logger.Warn("engine move rejected",
		zap.String("kind", failure.Kind.String()),
		zap.String("message", failure.Message),
	)
}

// abortAI clears the busy flag when a queued engine request never ran
func (s *Session) abortAI(gen uint64, err error) {
	s.mu.Lock()
	var fx effects
	if gen == s.generation && s.thinking {
		s.thinking = false
		s.lastError = "engine request not scheduled: " + err.Error()
		s.touchLocked(&fx)
	}
	s.unlockAndFlush(&fx)
}

func asMoveFailure(err error, engineType string) *engine.EngineMoveFailure {
	var failure *engine.EngineMoveFailure
	if errors.As(err, &failure) {
		return failure
	}
	return &engine.EngineMoveFailure{
		Kind:    engine.FailureTransport,
		Engine:  engineType,
		Message: err.Error(),
		Err:     err,
	}
}
