// Package analysis grades the moves of a game from engine evaluations.
//
// Evaluations are in pawns from White's point of view. Win chance uses the
// logistic curve over centipawns; a move's loss is the drop in win chance for
// the side that played it.
package analysis

import (
	"fmt"
	"math"
)

type Classification string

const (
	Best       Classification = "best"
	Excellent  Classification = "excellent"
	Good       Classification = "good"
	Inaccuracy Classification = "inaccuracy"
	Mistake    Classification = "mistake"
	Blunder    Classification = "blunder"
	Book       Classification = "book"
)

// winChanceSlope is the logistic coefficient per centipawn
const winChanceSlope = 0.00368208

// mateThreshold separates pawn scores from encoded mate scores
const mateThreshold = 100.0

// Thresholds are upper bounds on win-chance loss for each grade
type Thresholds struct {
	Best       float64 `json:"best"`
	Excellent  float64 `json:"excellent"`
	Good       float64 `json:"good"`
	Inaccuracy float64 `json:"inaccuracy"`
	Mistake    float64 `json:"mistake"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Best:       0.02,
		Excellent:  0.05,
		Good:       0.10,
		Inaccuracy: 0.20,
		Mistake:    0.30,
	}
}

// WinChance maps a pawn evaluation to White's winning chance in [0,1]
func WinChance(eval float64) float64 {
	cp := eval * 100
	return (50 + 50*(2/(1+math.Exp(-winChanceSlope*cp))-1)) / 100
}

// Loss is the win-chance drop for the mover, never negative
func Loss(prevEval, curEval float64, whiteMoved bool) float64 {
	prev, cur := WinChance(prevEval), WinChance(curEval)
	if whiteMoved {
		return math.Max(0, prev-cur)
	}
	return math.Max(0, cur-prev)
}

func Accuracy(loss float64) float64 {
	return math.Max(0, 100-loss*400)
}

func (t Thresholds) Classify(loss float64) Classification {
	switch {
	case loss <= t.Best:
		return Best
	case loss <= t.Excellent:
		return Excellent
	case loss <= t.Good:
		return Good
	case loss <= t.Inaccuracy:
		return Inaccuracy
	case loss <= t.Mistake:
		return Mistake
	default:
		return Blunder
	}
}

// MateIn decodes an encoded mate score; ok is false for ordinary scores
func MateIn(eval float64) (int, bool) {
	abs := math.Abs(eval)
	if abs <= mateThreshold {
		return 0, false
	}
	return int(math.Ceil((1000 - abs) / 2)), true
}

// FormatEvaluation renders "+0.35", "-1.20", "M3" or "-M3"
func FormatEvaluation(eval float64) string {
	if n, ok := MateIn(eval); ok {
		if eval > 0 {
			return fmt.Sprintf("M%d", n)
		}
		return fmt.Sprintf("-M%d", n)
	}
	if eval > 0 {
		return fmt.Sprintf("+%.2f", eval)
	}
	return fmt.Sprintf("%.2f", eval)
}

// Assessment describes who stands better
func Assessment(eval float64) string {
	abs := math.Abs(eval)
	side := "White"
	if eval < 0 {
		side = "Black"
	}
	switch {
	case abs > mateThreshold:
		return side + " is winning"
	case abs > 3:
		return side + " is much better"
	case abs > 1.5:
		return side + " is better"
	case abs > 0.5:
		return side + " is slightly better"
	default:
		return "Equal position"
	}
}
