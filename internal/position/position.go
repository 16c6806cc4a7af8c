// Package position adapts the corentings/chess rules engine into immutable
// position values. Every transition clones the underlying game, so a Position
// handed out is never modified afterwards.
package position

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/corentings/chess/v2"

	"chesstral/internal/core"
)

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+ \d+ \d+$`)

// Position is a board state together with the move history that produced it
type Position struct {
	game *chess.Game
}

// Start returns the standard initial position
func Start() Position {
	return Position{game: chess.NewGame()}
}

// FromFEN parses a FEN string. Four-field EPD input gets "0 1" counters.
func FromFEN(fen string) (Position, error) {
	fen = strings.Join(strings.Fields(fen), " ")
	if len(strings.Fields(fen)) == 4 {
		fen += " 0 1"
	}
	if !isFENSafe(fen) {
		return Position{}, &InvalidPositionInput{Input: fen, Reason: "malformed FEN"}
	}

	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, &InvalidPositionInput{Input: fen, Reason: "FEN rejected by rules engine", Err: err}
	}
	return Position{game: chess.NewGame(opt)}, nil
}

// FromPGN parses a PGN game and returns its starting position and SAN move list
func FromPGN(pgn string) (Position, []string, error) {
	if strings.TrimSpace(pgn) == "" {
		return Start(), nil, nil
	}
	if strings.ContainsFunc(pgn, func(r rune) bool {
		return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
	}) {
		return Position{}, nil, &InvalidPositionInput{Input: pgn, Reason: "PGN contains control characters"}
	}

	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return Position{}, nil, &InvalidPositionInput{Input: pgn, Reason: "PGN rejected by rules engine", Err: err}
	}
	g := chess.NewGame(opt)

	positions := g.Positions()
	moves := g.Moves()
	if len(positions) == 0 {
		return Start(), nil, nil
	}

	initial, err := FromFEN(positions[0].String())
	if err != nil {
		return Position{}, nil, err
	}

	notation := chess.AlgebraicNotation{}
	sans := make([]string, len(moves))
	for i, mv := range moves {
		if i >= len(positions) {
			return Position{}, nil, &InvalidPositionInput{Input: pgn, Reason: "PGN move list is inconsistent"}
		}
		sans[i] = notation.Encode(positions[i], mv)
	}
	return initial, sans, nil
}

// ApplyMove returns the position after d, leaving p untouched
func ApplyMove(p Position, d Descriptor) (Position, error) {
	if p.game == nil {
		return Position{}, errors.New("position: apply on zero position")
	}
	if settled(p.game) {
		return Position{}, &IllegalMoveError{Move: d.String(), FEN: p.FEN(), Err: ErrGameOver}
	}

	next := p.game.Clone()
	if err := push(next, d); err != nil {
		return Position{}, &IllegalMoveError{Move: d.String(), FEN: p.FEN(), Err: err}
	}
	return Position{game: next}, nil
}

// Replay folds moves over initial; the result does not share state with initial
func Replay(initial Position, moves []string) (Position, error) {
	if initial.game == nil {
		return Position{}, errors.New("position: replay from zero position")
	}

	g := initial.game.Clone()
	for i, m := range moves {
		cur := Position{game: g}
		d := Parse(m)
		if settled(g) {
			return Position{}, &IllegalMoveError{Move: d.String(), FEN: cur.FEN(), Err: fmt.Errorf("ply %d: %w", i+1, ErrGameOver)}
		}
		if err := push(g, d); err != nil {
			return Position{}, &IllegalMoveError{Move: d.String(), FEN: cur.FEN(), Err: fmt.Errorf("ply %d: %w", i+1, err)}
		}
	}
	return Position{game: g}, nil
}

// settled reports an outcome the rules engine applied on its own. Claimable
// draws do not block further moves, so recorded games that play past them replay.
func settled(g *chess.Game) bool {
	return g.Outcome() != chess.NoOutcome
}

// push decodes d against the game's current position and plays it.
// SAN that fails to decode is retried as coordinate notation.
func push(g *chess.Game, d Descriptor) error {
	pos := g.Position()
	if d.IsStructured() {
		mv, err := chess.UCINotation{}.Decode(pos, d.uci())
		if err != nil {
			return err
		}
		return g.Move(mv, nil)
	}

	if d.SAN == "" {
		return errors.New("empty move")
	}
	mv, err := chess.AlgebraicNotation{}.Decode(pos, d.SAN)
	if err != nil {
		lower := strings.ToLower(d.SAN)
		if !uciPattern.MatchString(lower) {
			return err
		}
		if mv, err = (chess.UCINotation{}).Decode(pos, lower); err != nil {
			return err
		}
	}
	return g.Move(mv, nil)
}

// IsZero reports whether p was never initialised
func (p Position) IsZero() bool {
	return p.game == nil
}

func (p Position) FEN() string {
	if p.game == nil {
		return ""
	}
	return p.game.FEN()
}

// Turn returns the side to move
func (p Position) Turn() core.Color {
	if p.game != nil && p.game.Position().Turn() == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}

// Ply is the number of moves played since the position this history started from
func (p Position) Ply() int {
	if p.game == nil {
		return 0
	}
	return len(p.game.Moves())
}

// LastSAN returns the move that produced p in SAN, or "" at the root
func (p Position) LastSAN() string {
	mv, before := p.last()
	if mv == nil {
		return ""
	}
	return chess.AlgebraicNotation{}.Encode(before, mv)
}

// LastUCI returns the move that produced p in coordinate notation
func (p Position) LastUCI() string {
	mv, before := p.last()
	if mv == nil {
		return ""
	}
	return chess.UCINotation{}.Encode(before, mv)
}

func (p Position) last() (*chess.Move, *chess.Position) {
	if p.game == nil {
		return nil, nil
	}
	moves := p.game.Moves()
	positions := p.game.Positions()
	n := len(moves)
	if n == 0 || n > len(positions) {
		return nil, nil
	}
	return moves[n-1], positions[n-1]
}

// History returns the SAN of every move since the root
func (p Position) History() []string {
	if p.game == nil {
		return nil
	}
	moves := p.game.Moves()
	positions := p.game.Positions()
	notation := chess.AlgebraicNotation{}
	out := make([]string, 0, len(moves))
	for i, mv := range moves {
		if i < len(positions) {
			out = append(out, notation.Encode(positions[i], mv))
		}
	}
	return out
}

// LegalMoves lists legal moves in coordinate notation
func (p Position) LegalMoves() []string {
	if p.game == nil || Derive(p).IsGameOver {
		return nil
	}
	pos := p.game.Position()
	valid := pos.ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, chess.UCINotation{}.Encode(pos, &valid[i]))
	}
	return out
}

// MainLine returns a copy of the underlying move list for book lookups
func (p Position) MainLine() []*chess.Move {
	if p.game == nil {
		return nil
	}
	return p.game.Clone().Moves()
}

// FromStart reports whether the history of p begins at the standard initial position
func (p Position) FromStart() bool {
	if p.game == nil {
		return false
	}
	positions := p.game.Positions()
	if len(positions) == 0 {
		return true
	}
	return EPD(positions[0].String()) == EPD(StartingFEN)
}

// EPD strips the halfmove and fullmove counters from a FEN. The en passant
// square is kept only when an en passant capture is legal, so transposed
// move orders reach the same key.
func EPD(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 && fields[3] != "-" && !canCaptureEnPassant(strings.Join(fields, " ")+" 0 1") {
		fields[3] = "-"
	}
	return strings.Join(fields, " ")
}

func canCaptureEnPassant(fen string) bool {
	if !isFENSafe(fen) {
		return false
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return false
	}
	for _, m := range chess.NewGame(opt).ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return true
		}
	}
	return false
}

// isFENSafe checks for control characters and the overall FEN shape
func isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}
