package position

import (
	"github.com/corentings/chess/v2"

	"chesstral/internal/core"
)

// Reason names why a position is terminal
type Reason int

const (
	ReasonNone Reason = iota
	ReasonCheckmate
	ReasonStalemate
	ReasonThreefoldRepetition
	ReasonFivefoldRepetition
	ReasonFiftyMoveRule
	ReasonSeventyFiveMoveRule
	ReasonInsufficientMaterial
)

func (r Reason) String() string {
	switch r {
	case ReasonCheckmate:
		return "checkmate"
	case ReasonStalemate:
		return "stalemate"
	case ReasonThreefoldRepetition:
		return "threefold_repetition"
	case ReasonFivefoldRepetition:
		return "fivefold_repetition"
	case ReasonFiftyMoveRule:
		return "fifty_move_rule"
	case ReasonSeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case ReasonInsufficientMaterial:
		return "insufficient_material"
	default:
		return ""
	}
}

// Status is the pure projection of a position used by the session
type Status struct {
	Turn       core.Color
	IsGameOver bool
	Reason     Reason
	Winner     core.Color // Zero unless checkmate
	Result     string     // Human readable result, empty while the game goes on
}

// Derive reports side to move and terminal state. Threefold repetition and the
// fifty-move rule count as terminal as soon as they can be claimed.
func Derive(p Position) Status {
	st := Status{Turn: p.Turn()}
	if p.game == nil {
		return st
	}

	switch p.game.Method() {
	case chess.Checkmate:
		st.Reason = ReasonCheckmate
		st.Winner = core.OppositeColor(st.Turn)
	case chess.Stalemate:
		st.Reason = ReasonStalemate
	case chess.FivefoldRepetition:
		st.Reason = ReasonFivefoldRepetition
	case chess.SeventyFiveMoveRule:
		st.Reason = ReasonSeventyFiveMoveRule
	case chess.InsufficientMaterial:
		st.Reason = ReasonInsufficientMaterial
	default:
		for _, m := range p.game.EligibleDraws() {
			switch m {
			case chess.ThreefoldRepetition:
				st.Reason = ReasonThreefoldRepetition
			case chess.FiftyMoveRule:
				if st.Reason == ReasonNone {
					st.Reason = ReasonFiftyMoveRule
				}
			}
		}
	}

	if st.Reason != ReasonNone {
		st.IsGameOver = true
		st.Result = resultText(st)
	}
	return st
}

func resultText(st Status) string {
	switch st.Reason {
	case ReasonCheckmate:
		return st.Winner.Name() + " wins by checkmate"
	case ReasonStalemate:
		return "Draw by stalemate"
	case ReasonThreefoldRepetition, ReasonFivefoldRepetition:
		return "Draw by threefold repetition"
	case ReasonInsufficientMaterial:
		return "Draw by insufficient material"
	case ReasonFiftyMoveRule, ReasonSeventyFiveMoveRule:
		return "Draw by 50-move rule"
	default:
		return "Game over"
	}
}
