package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind is where in the request pipeline a move request failed
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureStatus
	FailureApplication
	FailureDecode
	FailureIllegalMove
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "status"
	case FailureApplication:
		return "application"
	case FailureDecode:
		return "decode"
	case FailureIllegalMove:
		return "illegal_move"
	default:
		return "unknown"
	}
}

// EngineMoveFailure is the single error type for every way a remote move can fail
type EngineMoveFailure struct {
	Kind       FailureKind
	Engine     string
	StatusCode int
	Message    string
	Err        error
}

func (e *EngineMoveFailure) Error() string {
	return fmt.Sprintf("engine move failed (%s): %s", e.Kind, e.Message)
}

func (e *EngineMoveFailure) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request hit its deadline
func (e *EngineMoveFailure) Timeout() bool {
	return isTimeout(e.Err)
}

// EvaluationUnavailable is returned for any evaluation failure
type EvaluationUnavailable struct {
	FEN        string
	StatusCode int
	Reason     string
	Err        error
}

func (e *EvaluationUnavailable) Error() string {
	return "evaluation unavailable: " + e.Reason
}

func (e *EvaluationUnavailable) Unwrap() error {
	return e.Err
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
