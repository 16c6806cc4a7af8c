package engine

import (
	"context"
	"fmt"
	"net/http"
)

// Rating is a human review of one commentary entry
type Rating struct {
	EngineName   string `json:"engineName"`
	FEN          string `json:"fen"`
	Move         string `json:"move"`
	MoveSequence string `json:"moveSequence"`
	Commentary   string `json:"commentary"`
	Quality      int    `json:"quality"`
	Correctness  int    `json:"correctness"`
	Relevance    int    `json:"relevance"`
	Salience     int    `json:"salience"`
	Review       string `json:"review"`
}

// ValidStars reports whether n is an allowed star value: 0 or 5..25 in steps of 5
func ValidStars(n int) bool {
	return n == 0 || (n >= 5 && n <= 25 && n%5 == 0)
}

// Validate checks every star field
func (r Rating) Validate() error {
	for name, v := range map[string]int{
		"quality":     r.Quality,
		"correctness": r.Correctness,
		"relevance":   r.Relevance,
		"salience":    r.Salience,
	} {
		if !ValidStars(v) {
			return fmt.Errorf("%s must be 0 or a multiple of 5 between 5 and 25, got %d", name, v)
		}
	}
	return nil
}

// SubmitRating posts a rating to the collection endpoint
func (c *Client) SubmitRating(ctx context.Context, r Rating) error {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/api/rate_move", r)
	if err != nil {
		return fmt.Errorf("submit rating: %w", err)
	}
	if !isSuccess(status) {
		return fmt.Errorf("submit rating: server error: %d - %s", status, snippet(body))
	}
	return nil
}
