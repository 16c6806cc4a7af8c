package analysis

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/opening"
	"chesstral/internal/position"
)

// failedAccuracy is credited to a move whose position could not be evaluated
const failedAccuracy = 85.0

type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (engine.Evaluation, error)
}

type BookLookup interface {
	Lookup(p position.Position) (opening.Entry, bool)
}

// MoveAnalysis grades one ply
type MoveAnalysis struct {
	Ply            int            `json:"ply"`
	MoveNumber     int            `json:"moveNumber"`
	SAN            string         `json:"move"`
	White          bool           `json:"isWhiteMove"`
	FEN            string         `json:"fen"`
	Evaluation     float64        `json:"evaluation"`
	Display        string         `json:"display"`
	BestMove       string         `json:"bestMove,omitempty"`
	PV             []string       `json:"pv,omitempty"`
	Classification Classification `json:"classification"`
	EvalLoss       float64        `json:"evaluationLoss"`
	WinChanceLoss  float64        `json:"winChanceLoss"`
	Accuracy       float64        `json:"accuracy"`
	Opening        *opening.Entry `json:"opening,omitempty"`
	Evaluated      bool           `json:"evaluated"`
}

// SideStats counts grades for one color
type SideStats struct {
	Accuracy   float64                `json:"accuracy"`
	Moves      int                    `json:"totalMoves"`
	Counts     map[Classification]int `json:"counts"`
	accuracies float64
}

type Report struct {
	Moves []MoveAnalysis `json:"moves"`
	White SideStats      `json:"white"`
	Black SideStats      `json:"black"`
	Depth int            `json:"depth"`
}

type Analyzer struct {
	eval       Evaluator
	book       BookLookup
	thresholds Thresholds
	depth      int
	logger     *zap.Logger
}

type Option func(*Analyzer)

func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) { a.thresholds = t }
}

func WithDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth > 0 {
			a.depth = depth
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer builds an analyzer; book may be nil
func NewAnalyzer(eval Evaluator, book BookLookup, opts ...Option) *Analyzer {
	a := &Analyzer{
		eval:       eval,
		book:       book,
		thresholds: DefaultThresholds(),
		depth:      engine.DefaultDepth,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze replays moves from initial and grades each one. A failed evaluation
// degrades that ply only; an illegal move or a cancelled context aborts.
func (a *Analyzer) Analyze(ctx context.Context, initial position.Position, moves []string) (Report, error) {
	report := Report{
		Moves: make([]MoveAnalysis, 0, len(moves)),
		White: SideStats{Counts: make(map[Classification]int)},
		Black: SideStats{Counts: make(map[Classification]int)},
		Depth: a.depth,
	}

	cur := initial
	prevEval := 0.0
	for i, san := range moves {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}

		white := cur.Turn() == core.ColorWhite
		next, err := position.ApplyMove(cur, position.Parse(san))
		if err != nil {
			return Report{}, fmt.Errorf("analyze ply %d: %w", i+1, err)
		}
		cur = next

		ma := MoveAnalysis{
			Ply:        i + 1,
			MoveNumber: (i + 2) / 2,
			SAN:        cur.LastSAN(),
			White:      white,
			FEN:        cur.FEN(),
		}

		if a.book != nil {
			if entry, ok := a.book.Lookup(cur); ok {
				ma.Classification = Book
				ma.Accuracy = 100
				ma.Opening = &entry
				ma.Display = FormatEvaluation(0)
				prevEval = 0
				report.add(ma)
				continue
			}
		}

		ev, err := a.eval.Evaluate(ctx, ma.FEN, a.depth)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Report{}, ctxErr
			}
			a.logger.Warn("evaluation failed during analysis",
				zap.Int("ply", ma.Ply),
				zap.String("fen", ma.FEN),
				zap.Error(err),
			)
			ma.Classification = Good
			ma.Accuracy = failedAccuracy
			ma.Display = FormatEvaluation(0)
			report.add(ma)
			continue
		}

		loss := Loss(prevEval, ev.Score, white)
		ma.Evaluated = true
		ma.Evaluation = ev.Score
		ma.Display = FormatEvaluation(ev.Score)
		ma.BestMove = ev.BestMove
		ma.PV = ev.PV
		ma.EvalLoss = math.Abs(ev.Score - prevEval)
		ma.WinChanceLoss = loss
		ma.Accuracy = Accuracy(loss)
		ma.Classification = a.thresholds.Classify(loss)
		prevEval = ev.Score
		report.add(ma)
	}

	report.White.finish()
	report.Black.finish()
	return report, nil
}

func (r *Report) add(ma MoveAnalysis) {
	r.Moves = append(r.Moves, ma)
	s := &r.Black
	if ma.White {
		s = &r.White
	}
	s.Moves++
	s.Counts[ma.Classification]++
	s.accuracies += ma.Accuracy
}

// finish averages accuracy; a side with no moves scores 100
func (s *SideStats) finish() {
	if s.Moves == 0 {
		s.Accuracy = 100
		return
	}
	s.Accuracy = s.accuracies / float64(s.Moves)
}
