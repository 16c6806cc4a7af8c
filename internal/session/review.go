package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chesstral/internal/engine"
	"chesstral/internal/position"
)

// RatingInput is a human score for one commentary entry
type RatingInput struct {
	Quality     int
	Correctness int
	Relevance   int
	Salience    int
	Review      string
}

// Evaluate scores the displayed position. It returns nil without error when
// the displayed position is terminal.
func (s *Session) Evaluate(ctx context.Context) (*engine.Evaluation, error) {
	s.mu.Lock()
	if s.deps.Evaluator == nil {
		s.mu.Unlock()
		return nil, &engine.EvaluationUnavailable{Reason: "no evaluator configured"}
	}
	p := s.displayedLocked()
	fen := p.FEN()
	gen := s.generation
	if position.Derive(p).IsGameOver {
		var fx effects
		if s.evaluation != nil {
			s.evaluation = nil
			s.touchLocked(&fx)
		}
		s.unlockAndFlush(&fx)
		return nil, nil
	}
	depth := s.cfg.EvalDepth
	s.mu.Unlock()

	ev, err := s.deps.Evaluator.Evaluate(ctx, fen, depth)

	s.mu.Lock()
	var fx effects
	if gen != s.generation || s.displayedLocked().FEN() != fen {
		current := s.generation
		s.mu.Unlock()
		return nil, &StaleResponse{Operation: "evaluation", Issued: gen, Current: current}
	}
	if err != nil {
		var unavailable *engine.EvaluationUnavailable
		if !errors.As(err, &unavailable) {
			unavailable = &engine.EvaluationUnavailable{FEN: fen, Reason: err.Error(), Err: err}
		}
		if s.evaluation != nil {
			s.evaluation = nil
			s.touchLocked(&fx)
		}
		s.unlockAndFlush(&fx)
		return nil, unavailable
	}

	ev.FEN = fen
	s.evaluation = &ev
	s.touchLocked(&fx)
	out := ev
	s.unlockAndFlush(&fx)
	return &out, nil
}

func (s *Session) scheduleEvalLocked(fx *effects) {
	if s.deps.Evaluator == nil {
		return
	}
	fx.run(Task{
		Kind:      TaskEvaluate,
		SessionID: s.id,
		Run: func(ctx context.Context) {
			if _, err := s.Evaluate(ctx); err != nil {
				s.deps.Logger.Debug("background evaluation skipped", zap.Error(err))
			}
		},
	}, nil)
}

// MarkReviewed flags commentary entry i as reviewed
func (s *Session) MarkReviewed(i int) error {
	s.mu.Lock()
	var fx effects
	if err := s.log.MarkReviewed(i); err != nil {
		s.mu.Unlock()
		return err
	}
	s.touchLocked(&fx)
	s.unlockAndFlush(&fx)
	return nil
}

// RateCommentary marks entry i reviewed and submits the rating in the
// background. Submission failures are logged only.
func (s *Session) RateCommentary(i int, in RatingInput) (engine.Rating, error) {
	s.mu.Lock()
	var fx effects
	entry, err := s.log.Get(i)
	if err != nil {
		s.mu.Unlock()
		return engine.Rating{}, err
	}

	r := engine.Rating{
		EngineName:   entry.EngineName,
		FEN:          entry.FEN,
		Move:         entry.SAN,
		MoveSequence: entry.MoveSequence,
		Commentary:   entry.Rationale,
		Quality:      in.Quality,
		Correctness:  in.Correctness,
		Relevance:    in.Relevance,
		Salience:     in.Salience,
		Review:       in.Review,
	}
	if err := r.Validate(); err != nil {
		s.mu.Unlock()
		return engine.Rating{}, fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}

	if err := s.log.MarkReviewed(i); err != nil {
		s.mu.Unlock()
		return engine.Rating{}, err
	}
	s.version++
	rated := r
	fx.emit(Event{Type: EventRated, Rating: &rated, Entry: &entry})

	if rater := s.deps.Rater; rater != nil {
		fx.run(Task{
			Kind:      TaskRating,
			SessionID: s.id,
			Run: func(ctx context.Context) {
				if err := rater.SubmitRating(ctx, r); err != nil {
					s.deps.Logger.Warn("rating submission failed", zap.Int("entry", i), zap.Error(err))
				}
			},
		}, nil)
	}
	s.unlockAndFlush(&fx)
	return r, nil
}
