package processor

import (
	"chesstral/internal/analysis"
	"chesstral/internal/commentary"
	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/session"
)

// BuildSessionResponse converts a snapshot to its API form
func BuildSessionResponse(snap session.Snapshot) core.SessionResponse {
	moves := make([]core.MoveInfo, len(snap.Moves))
	for i, m := range snap.Moves {
		moves[i] = core.MoveInfo{
			Ply:        m.Ply,
			MoveNumber: m.MoveNumber,
			SAN:        m.SAN,
			UCI:        m.UCI,
			Color:      m.Color.String(),
			FEN:        m.FEN(),
		}
	}

	resp := core.SessionResponse{
		SessionID:      snap.ID,
		Mode:           snap.Mode.String(),
		Kind:           snap.Kind.String(),
		HumanSide:      snap.HumanSide.String(),
		Turn:           snap.Turn().String(),
		IsHumanTurn:    snap.IsHumanTurn(),
		Thinking:       snap.Thinking,
		Cursor:         snap.Cursor,
		Live:           snap.Live,
		FEN:            snap.Position.FEN(),
		InitialFEN:     snap.Initial.FEN(),
		Moves:          moves,
		Result:         snap.Result,
		TerminalReason: snap.Reason.String(),
		Engine:         snap.Engine,
		LastError:      snap.LastError,
		Commentary:     len(snap.Commentary),
		Version:        snap.Version,
	}
	if snap.Evaluation != nil {
		resp.Evaluation = BuildEvaluation(snap.Evaluation)
	}
	return resp
}

// BuildEvaluation adds display text to a known evaluation
func BuildEvaluation(ev *engine.Evaluation) *core.EvaluationInfo {
	score := ev.Score
	return &core.EvaluationInfo{
		Score:      &score,
		Display:    analysis.FormatEvaluation(ev.Score),
		Assessment: analysis.Assessment(ev.Score),
		BestMove:   ev.BestMove,
		PV:         append([]string(nil), ev.PV...),
		Depth:      ev.Depth,
		FEN:        ev.FEN,
	}
}

func buildCommentary(entries []commentary.Entry) []core.CommentaryInfo {
	out := make([]core.CommentaryInfo, len(entries))
	for i, e := range entries {
		out[i] = core.CommentaryInfo{
			Index:        i,
			ID:           e.ID,
			EngineName:   e.EngineName,
			MoveNumber:   e.MoveNumber,
			MoveSequence: e.MoveSequence,
			Move:         e.SAN,
			Commentary:   e.Rationale,
			FEN:          e.FEN,
			Reviewed:     e.Reviewed,
			RawResponse:  e.RawResponse,
		}
	}
	return out
}
