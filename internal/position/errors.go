package position

import (
	"errors"
	"fmt"
)

// ErrGameOver is wrapped by IllegalMoveError when a move is attempted in a terminal position
var ErrGameOver = errors.New("game is over")

// IllegalMoveError reports a move the rules engine rejected
type IllegalMoveError struct {
	Move string
	FEN  string
	Err  error
}

func (e *IllegalMoveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("illegal move %q in %s: %v", e.Move, e.FEN, e.Err)
	}
	return fmt.Sprintf("illegal move %q in %s", e.Move, e.FEN)
}

func (e *IllegalMoveError) Unwrap() error {
	return e.Err
}

// InvalidPositionInput reports malformed FEN or PGN text
type InvalidPositionInput struct {
	Input  string
	Reason string
	Err    error
}

func (e *InvalidPositionInput) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid position input: %s: %v", e.Reason, e.Err)
	}
	return "invalid position input: " + e.Reason
}

func (e *InvalidPositionInput) Unwrap() error {
	return e.Err
}
