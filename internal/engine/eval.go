package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultDepth is the search depth used for analysis when none is given
const DefaultDepth = 18

// Evaluation is a score in pawns from White's point of view
type Evaluation struct {
	FEN      string   `json:"fen"`
	Score    float64  `json:"score"`
	BestMove string   `json:"bestMove,omitempty"`
	PV       []string `json:"pv,omitempty"`
	Depth    int      `json:"depth,omitempty"`
	Nodes    int64    `json:"nodes,omitempty"`
	Time     float64  `json:"time,omitempty"`
}

type evalRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth,omitempty"`
}

type evalResponse struct {
	Evaluation *float64 `json:"evaluation"`
	BestMove   string   `json:"best_move"`
	Analysis   *struct {
		Depth   int             `json:"depth"`
		PV      pvList          `json:"pv"`
		Nodes   float64         `json:"nodes"`
		Time    float64         `json:"time"`
		MultiPV json.RawMessage `json:"multipv"`
	} `json:"analysis"`
}

// pvList accepts a principal variation as a JSON array or a space separated string
type pvList []string

func (p *pvList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("pv: %w", err)
	}
	*p = strings.Fields(s)
	return nil
}

// Evaluate scores a position; depth <= 0 lets the service choose
func (c *Client) Evaluate(ctx context.Context, fen string, depth int) (Evaluation, error) {
	if depth < 0 {
		depth = 0
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/api/eval", evalRequest{FEN: fen, Depth: depth})
	if err != nil {
		return Evaluation{}, &EvaluationUnavailable{FEN: fen, Reason: err.Error(), Err: err}
	}
	if !isSuccess(status) {
		return Evaluation{}, &EvaluationUnavailable{
			FEN:        fen,
			StatusCode: status,
			Reason:     fmt.Sprintf("server error: %d - %s", status, snippet(body)),
		}
	}

	var resp evalResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Evaluation{}, &EvaluationUnavailable{FEN: fen, Reason: "unparseable response", Err: err}
	}
	if resp.Evaluation == nil {
		return Evaluation{}, &EvaluationUnavailable{FEN: fen, Reason: "response has no evaluation"}
	}

	ev := Evaluation{
		FEN:      fen,
		Score:    *resp.Evaluation,
		BestMove: resp.BestMove,
	}
	if a := resp.Analysis; a != nil {
		ev.PV = a.PV
		ev.Depth = a.Depth
		ev.Nodes = int64(a.Nodes)
		ev.Time = a.Time
	}
	return ev, nil
}
