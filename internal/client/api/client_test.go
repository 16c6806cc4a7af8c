package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL + "/")
	c.Out = io.Discard
	return c
}

func TestMakeMoveSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sessions/abc/moves", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req core.MoveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "e4", req.Move)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(core.SessionResponse{SessionID: "abc", Cursor: 0, Version: 3})
	})

	resp, err := c.MakeMove("abc", "e4")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.SessionID)
	assert.Equal(t, uint64(3), resp.Version)
}

func TestErrorResponseBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(core.ErrorResponse{Error: "not your turn", Code: core.ErrNotHumanTurn})
	})

	_, err := c.MakeMove("abc", "e4")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, core.ErrNotHumanTurn, apiErr.Code)
	assert.Contains(t, err.Error(), "not your turn")
}

func TestNonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})

	_, err := c.Health()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "gateway down", apiErr.ErrorResponse.Error)
}

func TestWaitSessionQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "7", r.URL.Query().Get("version"))
		_ = json.NewEncoder(w).Encode(core.SessionResponse{SessionID: "abc", Version: 8})
	})

	resp, err := c.WaitSession("abc", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), resp.Version)
}

func TestBoardSVGReturnsRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "svg", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = io.WriteString(w, "<svg></svg>")
	})

	body, err := c.GetBoardSVG("abc")
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", string(body))
}

func TestCommentaryRatingPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/abc/commentary/2/rating", r.URL.Path)
		_ = json.NewEncoder(w).Encode(RatingResponse{Move: "Nf3", Quality: 20})
	})

	resp, err := c.Rate("abc", 2, &core.RateRequest{Quality: 20})
	require.NoError(t, err)
	assert.Equal(t, "Nf3", resp.Move)
}

func TestDeleteNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.DeleteSession("abc"))
}
