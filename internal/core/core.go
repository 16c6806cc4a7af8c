package core

import (
	"fmt"
	"strings"
)

// Mode is the lifecycle phase of a game session
type Mode int

const (
	ModeSetup Mode = iota
	ModeActive
	ModeFinished
)

func (m Mode) String() string {
	switch m {
	case ModeSetup:
		return "setup"
	case ModeActive:
		return "active"
	case ModeFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Kind selects the rules around a session: competitive play or free research
type Kind int

const (
	KindCompetitive Kind = iota
	KindResearch
)

func (k Kind) String() string {
	if k == KindResearch {
		return "research"
	}
	return "competitive"
}

// ParseKind accepts "competitive" or "research", empty defaults to competitive
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "competitive":
		return KindCompetitive, nil
	case "research":
		return KindResearch, nil
	default:
		return KindCompetitive, fmt.Errorf("unknown session kind: %q", s)
	}
}

type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

// String returns the FEN side letter
func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

// Name returns "White" or "Black"
func (c Color) Name() string {
	if c == ColorBlack {
		return "Black"
	}
	return "White"
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// ParseColor accepts "w", "b", "white" or "black" in any case
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return ColorWhite, nil
	case "b", "black":
		return ColorBlack, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}
