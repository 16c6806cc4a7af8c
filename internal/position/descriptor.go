package position

import (
	"regexp"
	"strings"
)

var uciPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// Descriptor identifies a move either by squares or by SAN text
type Descriptor struct {
	From      string
	To        string
	Promotion string
	SAN       string
}

// SAN builds a descriptor from algebraic notation
func SAN(s string) Descriptor {
	return Descriptor{SAN: strings.TrimSpace(s)}
}

// Squares builds a structured descriptor, promotion may be empty
func Squares(from, to, promotion string) Descriptor {
	return Descriptor{
		From:      strings.ToLower(strings.TrimSpace(from)),
		To:        strings.ToLower(strings.TrimSpace(to)),
		Promotion: strings.ToLower(strings.TrimSpace(promotion)),
	}
}

// Parse reads coordinate notation (e2e4, a7a8q) as squares and anything else as SAN
func Parse(s string) Descriptor {
	s = strings.TrimSpace(s)
	if lower := strings.ToLower(s); uciPattern.MatchString(lower) {
		return Squares(lower[0:2], lower[2:4], lower[4:])
	}
	return SAN(s)
}

// IsStructured reports whether the descriptor names squares rather than SAN
func (d Descriptor) IsStructured() bool {
	return d.SAN == "" && d.From != ""
}

func (d Descriptor) uci() string {
	return d.From + d.To + d.Promotion
}

func (d Descriptor) String() string {
	if d.IsStructured() {
		return d.uci()
	}
	return d.SAN
}
