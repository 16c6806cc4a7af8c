package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chesstral/internal/core"
)

// legacyConfidence is assigned to responses in the nested prompt.completion shape
const legacyConfidence = 0.8

// MoveQuery is everything the remote service needs to pick a move
type MoveQuery struct {
	FEN          string
	History      []string // SAN from the game start
	Engine       core.EngineSelection
	ContextOptIn bool
	Conversation json.RawMessage // Prior conversation, sent only with ContextOptIn
}

// MoveResult is the normalized answer regardless of wire shape
type MoveResult struct {
	Move         string
	Rationale    string
	Confidence   float64
	Engine       string
	UUID         string
	RawResponse  string
	Conversation json.RawMessage
	Raw          json.RawMessage
}

type moveRequest struct {
	FEN         string          `json:"fen"`
	PGN         []string        `json:"pgn"`
	Engine      string          `json:"engine"`
	Model       string          `json:"model,omitempty"`
	Temperature float64         `json:"temperature"`
	Context     json.RawMessage `json:"context"`
}

// moveResponse covers both the flat and the nested prompt.completion shapes
type moveResponse struct {
	Success     *bool           `json:"success"`
	Move        *string         `json:"move"`
	Thoughts    string          `json:"thoughts"`
	Confidence  *float64        `json:"confidence"`
	Engine      *string         `json:"engine"`
	UUID        string          `json:"uuid"`
	Error       *string         `json:"error"`
	RawResponse json.RawMessage `json:"raw_response"`
	Prompt      *legacyPrompt   `json:"prompt"`
}

type legacyPrompt struct {
	Completion struct {
		Move     string `json:"move"`
		Thoughts string `json:"thoughts"`
	} `json:"completion"`
	Context json.RawMessage `json:"context"`
}

func (r *moveResponse) standardized() bool {
	return r.Success != nil && r.Move != nil && r.Confidence != nil && r.Engine != nil
}

// RequestMove asks the remote service for a move in the given position
func (c *Client) RequestMove(ctx context.Context, q MoveQuery) (MoveResult, error) {
	history := q.History
	if history == nil {
		history = []string{}
	}
	req := moveRequest{
		FEN:         q.FEN,
		PGN:         history,
		Engine:      q.Engine.Type,
		Model:       q.Engine.Model,
		Temperature: q.Engine.Temperature,
		Context:     json.RawMessage("[]"),
	}
	if q.ContextOptIn && len(q.Conversation) > 0 {
		req.Context = q.Conversation
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/api/move", req)
	if err != nil {
		return MoveResult{}, &EngineMoveFailure{
			Kind:    FailureTransport,
			Engine:  q.Engine.Type,
			Message: err.Error(),
			Err:     err,
		}
	}
	if !isSuccess(status) {
		return MoveResult{}, &EngineMoveFailure{
			Kind:       FailureStatus,
			Engine:     q.Engine.Type,
			StatusCode: status,
			Message:    fmt.Sprintf("server error: %d - %s", status, snippet(body)),
		}
	}

	result, err := normalizeMove(body, q.Engine)
	if err != nil {
		return MoveResult{}, err
	}

	c.logger.Debug("move received",
		zap.String("engine", result.Engine),
		zap.String("move", result.Move),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

// normalizeMove maps either response shape onto MoveResult
func normalizeMove(body []byte, sel core.EngineSelection) (MoveResult, error) {
	var resp moveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return MoveResult{}, &EngineMoveFailure{
			Kind:    FailureDecode,
			Engine:  sel.Type,
			Message: "unparseable response: " + err.Error(),
			Err:     err,
		}
	}

	raw := rawText(resp.RawResponse)

	// An explicit failure is reported as is, whatever else the body carries
	if resp.Success != nil && !*resp.Success {
		engineName := sel.Type
		if resp.Engine != nil && *resp.Engine != "" {
			engineName = *resp.Engine
		}
		msg := "engine reported failure"
		if resp.Error != nil && *resp.Error != "" {
			msg = *resp.Error
		}
		return MoveResult{}, &EngineMoveFailure{
			Kind:    FailureApplication,
			Engine:  engineName,
			Message: msg,
		}
	}

	if resp.standardized() {
		move := strings.TrimSpace(*resp.Move)
		if move == "" {
			return MoveResult{}, &EngineMoveFailure{
				Kind:    FailureApplication,
				Engine:  *resp.Engine,
				Message: "engine reported success without a move",
			}
		}

		rationale := resp.Thoughts
		if rationale == "" {
			rationale = raw
		}
		return MoveResult{
			Move:        move,
			Rationale:   rationale,
			Confidence:  *resp.Confidence,
			Engine:      *resp.Engine,
			UUID:        resp.UUID,
			RawResponse: raw,
			Raw:         json.RawMessage(body),
		}, nil
	}

	// Nested prompt.completion shape
	var move, thoughts string
	var conversation json.RawMessage
	if resp.Prompt != nil {
		move = strings.TrimSpace(resp.Prompt.Completion.Move)
		thoughts = resp.Prompt.Completion.Thoughts
		conversation = resp.Prompt.Context
	}
	if move == "" {
		return MoveResult{}, &EngineMoveFailure{
			Kind:    FailureApplication,
			Engine:  sel.Type,
			Message: "No move returned from engine",
		}
	}

	id := resp.UUID
	if id == "" {
		id = uuid.NewString()
	}
	return MoveResult{
		Move:         move,
		Rationale:    thoughts,
		Confidence:   legacyConfidence,
		Engine:       sel.Type,
		UUID:         id,
		Conversation: conversation,
		Raw:          json.RawMessage(body),
	}, nil
}

// rawText renders raw_response as text whether it arrived as a string or as JSON
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
