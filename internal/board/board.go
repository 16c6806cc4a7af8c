// Package board renders positions from FEN as ASCII text or SVG
package board

import (
	"fmt"
	"strconv"
	"strings"

	"chesstral/internal/core"
)

// Board is the piece placement and side to move of a FEN
type Board struct {
	squares  [8][8]byte // [0] is rank 8
	turn     core.Color
	castling string
	fullmove int
}

// ParseFEN reads the placement, turn and counters of a FEN
func ParseFEN(fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 6 parts, got %d", len(parts))
	}

	b := &Board{}
	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	for r := 0; r < 8; r++ {
		file := 0
		for _, ch := range ranks[r] {
			switch {
			case ch >= '1' && ch <= '8':
				file += int(ch - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", ch):
				if file >= 8 {
					return nil, fmt.Errorf("invalid FEN: too many pieces in rank %d", 8-r)
				}
				b.squares[r][file] = byte(ch)
				file++
			default:
				return nil, fmt.Errorf("invalid FEN: unexpected %q in rank %d", ch, 8-r)
			}
		}
		if file != 8 {
			return nil, fmt.Errorf("invalid FEN: rank %d has %d files", 8-r, file)
		}
	}

	switch parts[1] {
	case "w":
		b.turn = core.ColorWhite
	case "b":
		b.turn = core.ColorBlack
	default:
		return nil, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}
	b.castling = parts[2]

	n, err := strconv.Atoi(parts[5])
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: fullmove counter")
	}
	b.fullmove = n
	return b, nil
}

func (b *Board) Turn() core.Color {
	return b.turn
}

func (b *Board) FullMove() int {
	return b.fullmove
}

// PieceAt returns the FEN letter on square ("e4"), 0 when empty or invalid
func (b *Board) PieceAt(square string) byte {
	r, f, ok := coords(square)
	if !ok {
		return 0
	}
	return b.squares[r][f]
}

// coords maps "e4" to row/col indices of squares
func coords(square string) (int, int, bool) {
	if len(square) != 2 {
		return 0, 0, false
	}
	if square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return 0, 0, false
	}
	return int('8' - square[1]), int(square[0] - 'a'), true
}

// squareName is the inverse of coords
func squareName(row, col int) string {
	return fmt.Sprintf("%c%c", 'a'+col, '8'-row)
}

// ToASCII draws the board with White at the bottom, or Black when flipped
func (b *Board) ToASCII(flipped bool) string {
	files := "  a b c d e f g h"
	if flipped {
		files = "  h g f e d c b a"
	}

	var sb strings.Builder
	sb.WriteString(files + "\n")
	for i := 0; i < 8; i++ {
		r := i
		if flipped {
			r = 7 - i
		}
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for j := 0; j < 8; j++ {
			f := j
			if flipped {
				f = 7 - j
			}
			if piece := b.squares[r][f]; piece == 0 {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", piece))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString(files)
	return sb.String()
}

// ASCII parses fen and draws it
func ASCII(fen string, flipped bool) (string, error) {
	b, err := ParseFEN(fen)
	if err != nil {
		return "", err
	}
	return b.ToASCII(flipped), nil
}
