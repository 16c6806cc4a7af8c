package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chesstral/internal/core"
)

func init() {
	DisableColors()
}

func TestRenderBoardPlain(t *testing.T) {
	ascii := "  a b c d e f g h\n8 r . . . k . . .  8\n1 . . . . K . . R  1\n  a b c d e f g h"
	var buf bytes.Buffer
	RenderBoard(&buf, ascii)
	assert.Equal(t, ascii+"\n", buf.String())
}

func TestMoveList(t *testing.T) {
	moves := []core.MoveInfo{
		{Ply: 1, MoveNumber: 1, SAN: "e4", Color: "w"},
		{Ply: 2, MoveNumber: 1, SAN: "e5", Color: "b"},
		{Ply: 3, MoveNumber: 2, SAN: "Nf3", Color: "w"},
	}
	assert.Equal(t, "1. e4 e5 2. Nf3", MoveList(moves, 5))
	assert.Equal(t, "1. e4 [e5] 2. Nf3", MoveList(moves, 1))

	fromBlack := []core.MoveInfo{{MoveNumber: 12, SAN: "Qd7", Color: "b"}, {MoveNumber: 13, SAN: "O-O", Color: "w"}}
	assert.Equal(t, "12... Qd7 13. O-O", MoveList(fromBlack, -1))
}

func TestStatus(t *testing.T) {
	score := 1.2
	s := &core.SessionResponse{
		Mode:   "active",
		Turn:   "b",
		Live:   false,
		Cursor: 0,
		Moves:  []core.MoveInfo{{SAN: "e4"}, {SAN: "e5"}},
		Evaluation: &core.EvaluationInfo{
			Score: &score, Display: "+1.20", Assessment: "White is slightly better", Depth: 18,
		},
	}
	line := Status(s)
	assert.True(t, strings.HasPrefix(line, "active | to move: Black"))
	assert.Contains(t, line, "reviewing ply 1/2")
	assert.Contains(t, line, "eval +1.20 (White is slightly better) d18")
	assert.Equal(t, "eval -", Evaluation(nil))
}
