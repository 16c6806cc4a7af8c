package core

// Error codes carried in ErrorResponse.Code
const (
	ErrSessionNotFound       = "SESSION_NOT_FOUND"
	ErrIllegalMove           = "ILLEGAL_MOVE"
	ErrNotHumanTurn          = "NOT_HUMAN_TURN"
	ErrNotLive               = "NOT_LIVE"
	ErrGameOver              = "GAME_OVER"
	ErrEngineFailure         = "ENGINE_FAILURE"
	ErrBusy                  = "BUSY"
	ErrInvalidPosition       = "INVALID_POSITION"
	ErrEvaluationUnavailable = "EVALUATION_UNAVAILABLE"
	ErrRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent        = "INVALID_CONTENT"
	ErrInvalidRequest        = "INVALID_REQUEST"
	ErrInternalError         = "INTERNAL_ERROR"
	ErrResourceLimit         = "RESOURCE_LIMIT"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
