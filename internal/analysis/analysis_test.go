package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/engine"
	"chesstral/internal/opening"
	"chesstral/internal/position"
)

func TestWinChance(t *testing.T) {
	assert.InDelta(t, 0.5, WinChance(0), 1e-9)
	assert.InDelta(t, 0.591, WinChance(1), 1e-3)
	assert.InDelta(t, 0.409, WinChance(-1), 1e-3)
	assert.Greater(t, WinChance(10), 0.97)
}

func TestLossIsFromMoverPerspective(t *testing.T) {
	assert.InDelta(t, 0.091, Loss(0, -1, true), 1e-3)
	assert.Zero(t, Loss(0, 1, true))
	assert.InDelta(t, 0.091, Loss(0, 1, false), 1e-3)
	assert.Zero(t, Loss(0, -1, false))
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 100.0, Accuracy(0))
	assert.InDelta(t, 60.0, Accuracy(0.1), 1e-9)
	assert.Equal(t, 0.0, Accuracy(0.5))
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		loss float64
		want Classification
	}{
		{0, Best},
		{0.02, Best},
		{0.03, Excellent},
		{0.08, Good},
		{0.15, Inaccuracy},
		{0.25, Mistake},
		{0.31, Blunder},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.loss), "loss %v", tt.loss)
	}

	strict := Thresholds{Best: 0.01, Excellent: 0.02, Good: 0.03, Inaccuracy: 0.04, Mistake: 0.05}
	assert.Equal(t, Blunder, strict.Classify(0.1))
}

func TestFormatEvaluation(t *testing.T) {
	assert.Equal(t, "+0.35", FormatEvaluation(0.35))
	assert.Equal(t, "-1.20", FormatEvaluation(-1.2))
	assert.Equal(t, "0.00", FormatEvaluation(0))
	assert.Equal(t, "M2", FormatEvaluation(997))
	assert.Equal(t, "-M1", FormatEvaluation(-999))
}

func TestAssessment(t *testing.T) {
	assert.Equal(t, "Equal position", Assessment(0.4))
	assert.Equal(t, "White is slightly better", Assessment(0.8))
	assert.Equal(t, "Black is better", Assessment(-2))
	assert.Equal(t, "White is much better", Assessment(5))
	assert.Equal(t, "Black is winning", Assessment(-998))
}

type scriptedEval struct {
	results []any
	calls   []string
}

func (s *scriptedEval) Evaluate(_ context.Context, fen string, _ int) (engine.Evaluation, error) {
	s.calls = append(s.calls, fen)
	next := s.results[0]
	s.results = s.results[1:]
	if err, ok := next.(error); ok {
		return engine.Evaluation{}, err
	}
	return engine.Evaluation{FEN: fen, Score: next.(float64), BestMove: "g1f3"}, nil
}

type firstMoveBook struct{}

func (firstMoveBook) Lookup(p position.Position) (opening.Entry, bool) {
	if p.Ply() == 1 {
		return opening.Entry{ECO: "B00", Name: "King's Pawn"}, true
	}
	return opening.Entry{}, false
}

func TestAnalyze(t *testing.T) {
	ev := &scriptedEval{results: []any{0.3, errors.New("stockfish down")}}
	a := NewAnalyzer(ev, firstMoveBook{})

	report, err := a.Analyze(context.Background(), position.Start(), []string{"e4", "e5", "Nf3"})
	require.NoError(t, err)
	require.Len(t, report.Moves, 3)
	assert.Len(t, ev.calls, 2)
	assert.Equal(t, engine.DefaultDepth, report.Depth)

	book := report.Moves[0]
	assert.Equal(t, Book, book.Classification)
	assert.Equal(t, 100.0, book.Accuracy)
	require.NotNil(t, book.Opening)
	assert.Equal(t, "B00", book.Opening.ECO)
	assert.True(t, book.White)

	reply := report.Moves[1]
	assert.False(t, reply.White)
	assert.Equal(t, 1, reply.MoveNumber)
	assert.Equal(t, Excellent, reply.Classification)
	assert.InDelta(t, 88.97, reply.Accuracy, 0.05)
	assert.Equal(t, "+0.30", reply.Display)
	assert.True(t, reply.Evaluated)

	failed := report.Moves[2]
	assert.Equal(t, Good, failed.Classification)
	assert.Equal(t, 85.0, failed.Accuracy)
	assert.False(t, failed.Evaluated)
	assert.Equal(t, 2, failed.MoveNumber)

	assert.Equal(t, 2, report.White.Moves)
	assert.InDelta(t, 92.5, report.White.Accuracy, 1e-9)
	assert.Equal(t, 1, report.White.Counts[Book])
	assert.Equal(t, 1, report.White.Counts[Good])
	assert.Equal(t, 1, report.Black.Moves)
}

func TestAnalyzeEmptyGame(t *testing.T) {
	report, err := NewAnalyzer(&scriptedEval{}, nil).Analyze(context.Background(), position.Start(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Moves)
	assert.Equal(t, 100.0, report.White.Accuracy)
	assert.Equal(t, 100.0, report.Black.Accuracy)
}

func TestAnalyzeIllegalMove(t *testing.T) {
	_, err := NewAnalyzer(&scriptedEval{results: []any{0.1}}, nil).
		Analyze(context.Background(), position.Start(), []string{"e4", "e4"})
	var illegal *position.IllegalMoveError
	assert.ErrorAs(t, err, &illegal)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalyzer(&scriptedEval{}, nil).Analyze(ctx, position.Start(), []string{"e4"})
	assert.ErrorIs(t, err, context.Canceled)
}
