package processor

import (
	"chesstral/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateSession CommandType = iota
	CmdGetSession
	CmdListSessions
	CmdDeleteSession
	CmdStart
	CmdMakeMove
	CmdRequestAIMove
	CmdLoadPosition
	CmdNavigate
	CmdContinue
	CmdSwitchSides
	CmdSetSide
	CmdSetEngine
	CmdResign
	CmdReset
	CmdEvaluate
	CmdGetCommentary
	CmdMarkReviewed
	CmdRate
	CmdAnalyze
	CmdGetBoard
	CmdGetOpening
	CmdListEngines
)

// Command is a unified structure for all processor operations
type Command struct {
	Type      CommandType
	SessionID string // For session-specific commands
	Index     int    // Commentary index for review and rating
	Args      any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateSessionCommand(req core.CreateSessionRequest) Command {
	return Command{Type: CmdCreateSession, Args: req}
}

func NewGetSessionCommand(sessionID string) Command {
	return Command{Type: CmdGetSession, SessionID: sessionID}
}

func NewListSessionsCommand() Command {
	return Command{Type: CmdListSessions}
}

func NewDeleteSessionCommand(sessionID string) Command {
	return Command{Type: CmdDeleteSession, SessionID: sessionID}
}

func NewStartCommand(sessionID string) Command {
	return Command{Type: CmdStart, SessionID: sessionID}
}

func NewMakeMoveCommand(sessionID string, req core.MoveRequest) Command {
	return Command{Type: CmdMakeMove, SessionID: sessionID, Args: req}
}

func NewRequestAIMoveCommand(sessionID string) Command {
	return Command{Type: CmdRequestAIMove, SessionID: sessionID}
}

func NewLoadPositionCommand(sessionID string, req core.LoadPositionRequest) Command {
	return Command{Type: CmdLoadPosition, SessionID: sessionID, Args: req}
}

func NewNavigateCommand(sessionID string, req core.NavigateRequest) Command {
	return Command{Type: CmdNavigate, SessionID: sessionID, Args: req}
}

func NewContinueCommand(sessionID string) Command {
	return Command{Type: CmdContinue, SessionID: sessionID}
}

func NewSwitchSidesCommand(sessionID string) Command {
	return Command{Type: CmdSwitchSides, SessionID: sessionID}
}

func NewSetSideCommand(sessionID string, req core.SideRequest) Command {
	return Command{Type: CmdSetSide, SessionID: sessionID, Args: req}
}

func NewSetEngineCommand(sessionID string, req core.EngineRequest) Command {
	return Command{Type: CmdSetEngine, SessionID: sessionID, Args: req}
}

func NewResignCommand(sessionID string) Command {
	return Command{Type: CmdResign, SessionID: sessionID}
}

func NewResetCommand(sessionID string) Command {
	return Command{Type: CmdReset, SessionID: sessionID}
}

func NewEvaluateCommand(sessionID string) Command {
	return Command{Type: CmdEvaluate, SessionID: sessionID}
}

func NewGetCommentaryCommand(sessionID string) Command {
	return Command{Type: CmdGetCommentary, SessionID: sessionID}
}

func NewMarkReviewedCommand(sessionID string, index int) Command {
	return Command{Type: CmdMarkReviewed, SessionID: sessionID, Index: index}
}

func NewRateCommand(sessionID string, index int, req core.RateRequest) Command {
	return Command{Type: CmdRate, SessionID: sessionID, Index: index, Args: req}
}

func NewAnalyzeCommand(sessionID string) Command {
	return Command{Type: CmdAnalyze, SessionID: sessionID}
}

// Board formats accepted by NewGetBoardCommand
const (
	BoardASCII = "ascii"
	BoardSVG   = "svg"
)

func NewGetBoardCommand(sessionID, format string) Command {
	return Command{Type: CmdGetBoard, SessionID: sessionID, Args: format}
}

func NewGetOpeningCommand(sessionID string) Command {
	return Command{Type: CmdGetOpening, SessionID: sessionID}
}

func NewListEnginesCommand() Command {
	return Command{Type: CmdListEngines}
}
