package core

// Request types

type CreateSessionRequest struct {
	HumanSide string           `json:"humanSide,omitempty" validate:"omitempty,oneof=w b white black"`
	Kind      string           `json:"kind,omitempty" validate:"omitempty,oneof=competitive research"`
	Engine    *EngineSelection `json:"engine,omitempty"`
	FEN       string           `json:"fen,omitempty" validate:"omitempty,max=100"`
	PGN       string           `json:"pgn,omitempty" validate:"omitempty,max=20000"`
	Start     bool             `json:"start,omitempty"` // Enter Active immediately
}

// MoveRequest carries either a SAN/UCI string or a from/to pair
type MoveRequest struct {
	Move      string `json:"move,omitempty" validate:"required_without=From,max=16"`
	From      string `json:"from,omitempty" validate:"omitempty,len=2"`
	To        string `json:"to,omitempty" validate:"required_with=From,omitempty,len=2"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

type LoadPositionRequest struct {
	FEN string `json:"fen,omitempty" validate:"required_without=PGN,max=100"`
	PGN string `json:"pgn,omitempty" validate:"omitempty,max=20000"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,oneof=goto next previous start end"`
	Index  int    `json:"index" validate:"min=-1,max=6000"` // Only used by goto
}

type SideRequest struct {
	Side string `json:"side" validate:"required,oneof=w b white black"`
}

type EngineRequest struct {
	Engine EngineSelection `json:"engine"`
}

// RateRequest scores one commentary entry, stars are 0 or 5..25 in steps of 5
type RateRequest struct {
	Quality     int    `json:"quality" validate:"min=0,max=25"`
	Correctness int    `json:"correctness" validate:"min=0,max=25"`
	Relevance   int    `json:"relevance" validate:"min=0,max=25"`
	Salience    int    `json:"salience" validate:"min=0,max=25"`
	Review      string `json:"review,omitempty" validate:"max=2000"`
}

// Response types

type SessionResponse struct {
	SessionID      string          `json:"sessionId"`
	Mode           string          `json:"mode"` // "setup", "active", "finished"
	Kind           string          `json:"kind"`
	HumanSide      string          `json:"humanSide"` // "w" or "b"
	Turn           string          `json:"turn"`      // Side to move at the cursor
	IsHumanTurn    bool            `json:"isHumanTurn"`
	Thinking       bool            `json:"thinking"`
	Cursor         int             `json:"cursor"`
	Live           bool            `json:"live"`
	FEN            string          `json:"fen"` // Position at the cursor
	InitialFEN     string          `json:"initialFen"`
	Moves          []MoveInfo      `json:"moves"`
	Result         string          `json:"result,omitempty"`
	TerminalReason string          `json:"terminalReason,omitempty"`
	Evaluation     *EvaluationInfo `json:"evaluation,omitempty"`
	Engine         EngineSelection `json:"engine"`
	LastError      string          `json:"lastError,omitempty"`
	Commentary     int             `json:"commentaryCount"`
	Version        uint64          `json:"version"`
}

type MoveInfo struct {
	Ply        int    `json:"ply"`
	MoveNumber int    `json:"moveNumber"`
	SAN        string `json:"san"`
	UCI        string `json:"uci"`
	Color      string `json:"color"`
	FEN        string `json:"fen"`
}

type CommentaryInfo struct {
	Index        int    `json:"index"`
	ID           string `json:"id"`
	EngineName   string `json:"engineName"`
	MoveNumber   string `json:"moveNumber"`
	MoveSequence string `json:"moveSequence"`
	Move         string `json:"move"`
	Commentary   string `json:"commentary"`
	FEN          string `json:"fen"`
	Reviewed     bool   `json:"reviewed"`
	RawResponse  string `json:"rawResponse,omitempty"`
}

// EvaluationInfo is nil-scored when the evaluation is unknown
type EvaluationInfo struct {
	Score      *float64 `json:"score"`
	Display    string   `json:"display"`
	Assessment string   `json:"assessment,omitempty"`
	BestMove   string   `json:"bestMove,omitempty"`
	PV         []string `json:"pv,omitempty"`
	Depth      int      `json:"depth,omitempty"`
	FEN        string   `json:"fen"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type OpeningResponse struct {
	Found bool   `json:"found"`
	ECO   string `json:"eco,omitempty"`
	Name  string `json:"name,omitempty"`
	PGN   string `json:"pgn,omitempty"`
	FEN   string `json:"fen"`
}
