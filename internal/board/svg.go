package board

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const (
	squareSize  = 45
	boardMargin = 20
	lightColor  = "#f0d9b5"
	darkColor   = "#b58863"
	markColor   = "#cdd26a"
)

var glyphs = map[byte]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

// SVGOptions controls orientation and square highlighting
type SVGOptions struct {
	Flipped   bool
	Highlight []string // squares such as the last move's from and to
}

// WriteSVG draws the board as a standalone SVG document
func (b *Board) WriteSVG(w io.Writer, opts SVGOptions) {
	side := 8*squareSize + 2*boardMargin
	canvas := svg.New(w)
	canvas.Start(side, side)
	canvas.Rect(0, 0, side, side, "fill:#312e2b")

	marked := make(map[string]bool, len(opts.Highlight))
	for _, sq := range opts.Highlight {
		marked[strings.ToLower(sq)] = true
	}

	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			r, f := i, j
			if opts.Flipped {
				r, f = 7-i, 7-j
			}
			x := boardMargin + j*squareSize
			y := boardMargin + i*squareSize

			fill := lightColor
			if (r+f)%2 == 1 {
				fill = darkColor
			}
			if marked[squareName(r, f)] {
				fill = markColor
			}
			canvas.Rect(x, y, squareSize, squareSize, "fill:"+fill)

			if piece := b.squares[r][f]; piece != 0 {
				canvas.Text(x+squareSize/2, y+squareSize*4/5, glyphs[piece],
					"text-anchor:middle;font-size:36px;fill:#000")
			}
		}
	}

	// Coordinates
	for k := 0; k < 8; k++ {
		file, rank := k, 7-k
		if opts.Flipped {
			file, rank = 7-k, k
		}
		label := "font-size:12px;fill:#ccc;text-anchor:middle"
		canvas.Text(boardMargin+k*squareSize+squareSize/2, side-6, string(rune('a'+file)), label)
		canvas.Text(boardMargin/2, boardMargin+k*squareSize+squareSize/2+4, fmt.Sprint(rank+1), label)
	}
	canvas.End()
}

// SVG parses fen and returns the rendered document
func SVG(fen string, opts SVGOptions) ([]byte, error) {
	b, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	b.WriteSVG(&buf, opts)
	return buf.Bytes(), nil
}
