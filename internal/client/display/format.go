package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chesstral/internal/core"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}

// MoveList formats moves as numbered pairs starting from the first move's
// number, e.g. "1. e4 e5 2. Nf3" or "12... Qd7 13. O-O"
func MoveList(moves []core.MoveInfo, cursor int) string {
	var sb strings.Builder
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case m.Color == "w":
			fmt.Fprintf(&sb, "%d. ", m.MoveNumber)
		case i == 0:
			fmt.Fprintf(&sb, "%d... ", m.MoveNumber)
		}
		if i == cursor {
			sb.WriteString(Yellow + "[" + m.SAN + "]" + Reset)
		} else {
			sb.WriteString(m.SAN)
		}
	}
	return sb.String()
}

// Evaluation formats an evaluation for a status line
func Evaluation(ev *core.EvaluationInfo) string {
	if ev == nil || ev.Score == nil {
		return "eval -"
	}
	s := "eval " + ev.Display
	if ev.Assessment != "" {
		s += " (" + ev.Assessment + ")"
	}
	if ev.Depth > 0 {
		s += fmt.Sprintf(" d%d", ev.Depth)
	}
	return s
}

// Status is the one-line summary printed after every session command
func Status(s *core.SessionResponse) string {
	parts := []string{
		fmt.Sprintf("%s%s%s", Magenta, s.Mode, Reset),
		"to move: " + ColorForTurn(s.Turn),
	}
	if s.Thinking {
		parts = append(parts, Yellow+"engine thinking"+Reset)
	}
	if !s.Live {
		parts = append(parts, fmt.Sprintf("reviewing ply %d/%d", s.Cursor+1, len(s.Moves)))
	}
	if s.Result != "" {
		parts = append(parts, Green+s.Result+Reset)
	}
	parts = append(parts, Evaluation(s.Evaluation))
	if s.LastError != "" {
		parts = append(parts, Red+s.LastError+Reset)
	}
	return strings.Join(parts, " | ")
}
