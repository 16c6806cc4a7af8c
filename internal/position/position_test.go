package position

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/core"
)

func TestApplyMoveDoesNotMutateInput(t *testing.T) {
	start := Start()

	next, err := ApplyMove(start, SAN("e4"))
	require.NoError(t, err)

	assert.Equal(t, StartingFEN, start.FEN())
	assert.Equal(t, 0, start.Ply())
	assert.Equal(t, 1, next.Ply())
	assert.Equal(t, core.ColorBlack, next.Turn())
	assert.Equal(t, "e4", next.LastSAN())
	assert.Equal(t, "e2e4", next.LastUCI())
}

func TestStructuredAndSANDescriptorsAgree(t *testing.T) {
	bySAN, err := ApplyMove(Start(), SAN("Nf3"))
	require.NoError(t, err)
	bySquares, err := ApplyMove(Start(), Squares("g1", "f3", ""))
	require.NoError(t, err)
	byParse, err := ApplyMove(Start(), Parse("g1f3"))
	require.NoError(t, err)

	assert.Equal(t, bySAN.FEN(), bySquares.FEN())
	assert.Equal(t, bySAN.FEN(), byParse.FEN())
}

func TestApplyMoveIllegal(t *testing.T) {
	start := Start()

	_, err := ApplyMove(start, SAN("e5"))
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "e5", illegal.Move)
	assert.Equal(t, StartingFEN, illegal.FEN)

	_, err = ApplyMove(start, Squares("e2", "e5", ""))
	require.ErrorAs(t, err, &illegal)

	assert.Equal(t, StartingFEN, start.FEN())
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		in         string
		structured bool
		str        string
	}{
		{"e2e4", true, "e2e4"},
		{"A7A8Q", true, "a7a8q"},
		{"Nf3", false, "Nf3"},
		{"  exd5 ", false, "exd5"},
		{"O-O", false, "O-O"},
	}
	for _, tt := range tests {
		d := Parse(tt.in)
		assert.Equal(t, tt.structured, d.IsStructured(), tt.in)
		assert.Equal(t, tt.str, d.String(), tt.in)
	}
}

func TestReplayMatchesApplyChain(t *testing.T) {
	moves := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}

	p := Start()
	for _, m := range moves {
		var err error
		p, err = ApplyMove(p, SAN(m))
		require.NoError(t, err)
	}

	replayed, err := Replay(Start(), moves)
	require.NoError(t, err)
	assert.Equal(t, p.FEN(), replayed.FEN())
	assert.Equal(t, moves, replayed.History())

	prefix, err := Replay(Start(), moves[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, prefix.Ply())
	assert.Equal(t, core.ColorWhite, prefix.Turn())
}

func TestReplayReportsFailingPly(t *testing.T) {
	_, err := Replay(Start(), []string{"e4", "e4"})
	var illegal *IllegalMoveError
	require.ErrorAs(t, err, &illegal)
	assert.Contains(t, illegal.Error(), "ply 2")
}

func TestDeriveCheckmateAfterReplay(t *testing.T) {
	p, err := Replay(Start(), []string{"f3", "e5", "g4", "Qh4#"})
	require.NoError(t, err)

	st := Derive(p)
	assert.True(t, st.IsGameOver)
	assert.Equal(t, ReasonCheckmate, st.Reason)
	assert.Equal(t, core.ColorBlack, st.Winner)
	assert.Equal(t, "Black wins by checkmate", st.Result)
	assert.Empty(t, p.LegalMoves())

	_, err = ApplyMove(p, SAN("Kf2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGameOver))
}

func TestDeriveTerminalFEN(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		reason Reason
		result string
	}{
		{"checkmate", "rn1qkbnr/pbpp1Qpp/1p6/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 1", ReasonCheckmate, "White wins by checkmate"},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", ReasonStalemate, "Draw by stalemate"},
		{"insufficient", "8/8/8/8/8/8/8/K6k w - - 0 1", ReasonInsufficientMaterial, "Draw by insufficient material"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromFEN(tt.fen)
			require.NoError(t, err)
			st := Derive(p)
			assert.True(t, st.IsGameOver)
			assert.Equal(t, tt.reason, st.Reason)
			assert.Equal(t, tt.result, st.Result)
		})
	}
}

func TestDeriveThreefoldRepetition(t *testing.T) {
	shuffle := []string{"Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8"}

	p, err := Replay(Start(), shuffle[:4])
	require.NoError(t, err)
	assert.False(t, Derive(p).IsGameOver)

	p, err = Replay(Start(), shuffle)
	require.NoError(t, err)
	st := Derive(p)
	assert.True(t, st.IsGameOver)
	assert.Equal(t, ReasonThreefoldRepetition, st.Reason)
	assert.Equal(t, "Draw by threefold repetition", st.Result)
}

func TestReplayPlaysPastClaimableDraw(t *testing.T) {
	moves := []string{"Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8", "e4"}
	p, err := Replay(Start(), moves)
	require.NoError(t, err)
	assert.False(t, Derive(p).IsGameOver)
	assert.Equal(t, 9, p.Ply())
}

func TestDeriveOngoing(t *testing.T) {
	st := Derive(Start())
	assert.False(t, st.IsGameOver)
	assert.Equal(t, ReasonNone, st.Reason)
	assert.Empty(t, st.Result)
	assert.Equal(t, core.ColorWhite, st.Turn)
	assert.Len(t, Start().LegalMoves(), 20)
}

func TestFromFEN(t *testing.T) {
	_, err := FromFEN("not a fen")
	var invalid *InvalidPositionInput
	require.ErrorAs(t, err, &invalid)

	_, err = FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1\n")
	require.NoError(t, err)

	_, err = FromFEN("rnbqkbnr/ppp\x00pppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.ErrorAs(t, err, &invalid)

	p, err := FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	require.NoError(t, err)
	assert.Equal(t, StartingFEN, p.FEN())
}

func TestPromotionBySquares(t *testing.T) {
	p, err := FromFEN("8/P7/8/8/8/8/8/4k2K w - - 0 1")
	require.NoError(t, err)

	next, err := ApplyMove(p, Squares("a7", "a8", "q"))
	require.NoError(t, err)
	assert.Equal(t, "a7a8q", next.LastUCI())
	assert.Equal(t, core.ColorBlack, next.Turn())
}

func TestFromPGN(t *testing.T) {
	initial, moves, err := FromPGN("1. e4 e5 2. Nf3 Nc6 *")
	require.NoError(t, err)
	assert.Equal(t, StartingFEN, initial.FEN())
	assert.Equal(t, []string{"e4", "e5", "Nf3", "Nc6"}, moves)

	initial, moves, err = FromPGN("   ")
	require.NoError(t, err)
	assert.Equal(t, StartingFEN, initial.FEN())
	assert.Empty(t, moves)
}

func TestEPD(t *testing.T) {
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", EPD(StartingFEN))
	assert.Equal(t, "8/8/8/8/8/8/8/K6k w - -", EPD("8/8/8/8/8/8/8/K6k w - -"))

	// no black pawn can take on d3
	assert.Equal(t, "rnbqkb1r/pppppppp/5n2/8/3P4/5N2/PPP1PPPP/RNBQKB1R b KQkq -",
		EPD("rnbqkb1r/pppppppp/5n2/8/3P4/5N2/PPP1PPPP/RNBQKB1R b KQkq d3 0 2"))

	// exd6 is legal
	assert.Equal(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq d6",
		EPD("rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3"))
}

func TestEPDIgnoresMoveOrder(t *testing.T) {
	a, err := Replay(Start(), []string{"Nf3", "Nf6", "d4"})
	require.NoError(t, err)
	b, err := Replay(Start(), []string{"d4", "Nf6", "Nf3"})
	require.NoError(t, err)

	assert.Equal(t, EPD(b.FEN()), EPD(a.FEN()))
}
