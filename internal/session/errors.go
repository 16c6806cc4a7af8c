package session

import (
	"errors"
	"fmt"
)

var (
	ErrNotActive      = errors.New("game is not active")
	ErrAlreadyStarted = errors.New("game already started")
	ErrGameOver       = errors.New("game is over")
	ErrNotLive        = errors.New("not at the live position")
	ErrNotHumanTurn   = errors.New("not the human side's turn")
	ErrNotAITurn      = errors.New("it is the human side's turn")
	ErrBusy           = errors.New("engine is thinking")
	ErrResearchOnly   = errors.New("only available in research sessions")
	ErrNoEngine       = errors.New("no move engine configured")
	ErrInvalidEngine  = errors.New("invalid engine selection")
	ErrInvalidRating  = errors.New("invalid rating")
)

// StaleResponse reports a remote result that arrived after the session moved on
type StaleResponse struct {
	Operation string
	Issued    uint64
	Current   uint64
}

func (e *StaleResponse) Error() string {
	if e.Issued == e.Current {
		return fmt.Sprintf("stale %s: displayed position changed", e.Operation)
	}
	return fmt.Sprintf("stale %s: issued at generation %d, session at %d", e.Operation, e.Issued, e.Current)
}
