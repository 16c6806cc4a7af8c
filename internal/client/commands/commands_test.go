package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/client/display"
	"chesstral/internal/client/session"
	"chesstral/internal/core"
)

func init() {
	display.DisableColors()
}

func newTestSession(t *testing.T, handler http.Handler) (*session.Session, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	s := session.New(srv.URL)
	s.Out = &out
	s.Client.Out = io.Discard
	return s, &out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestParseNewArgs(t *testing.T) {
	req, err := parseNewArgs([]string{"White", "research", "start"})
	require.NoError(t, err)
	assert.Equal(t, "w", req.HumanSide)
	assert.Equal(t, "research", req.Kind)
	assert.True(t, req.Start)

	_, err = parseNewArgs([]string{"purple"})
	assert.Error(t, err)
}

func TestPositionRequest(t *testing.T) {
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	assert.Equal(t, fen, positionRequest(fen).FEN)
	assert.Equal(t, "1. e4 e5", positionRequest(" 1. e4 e5 ").PGN)
}

func TestParseRating(t *testing.T) {
	i, req, err := parseRating([]string{"2", "20", "15", "10", "5", "solid", "idea"})
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, core.RateRequest{Quality: 20, Correctness: 15, Relevance: 10, Salience: 5, Review: "solid idea"}, *req)

	_, _, err = parseRating([]string{"1", "20"})
	assert.Error(t, err)
	_, _, err = parseRating([]string{"-1", "0", "0", "0", "0"})
	assert.Error(t, err)
}

func TestMoveWaitsForEngine(t *testing.T) {
	moves := []core.MoveInfo{{Ply: 1, MoveNumber: 1, SAN: "e4", Color: "w"}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions/abc/moves", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, core.SessionResponse{SessionID: "abc", Mode: "active", Turn: "b", Live: true, Thinking: true, Moves: moves, Version: 2})
	})
	mux.HandleFunc("/api/v1/sessions/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("version"))
		done := append(moves, core.MoveInfo{Ply: 2, MoveNumber: 1, SAN: "e5", Color: "b"})
		writeJSON(w, core.SessionResponse{SessionID: "abc", Mode: "active", Turn: "w", Live: true, Cursor: 1, Moves: done, Version: 3})
	})
	mux.HandleFunc("/api/v1/sessions/abc/commentary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []core.CommentaryInfo{{Index: 0, Move: "e5", Commentary: "Mirror the centre."}})
	})

	s, out := newTestSession(t, mux)
	s.SetCurrentSession("abc")
	reg := NewRegistry(s)

	require.NoError(t, reg.Execute("m e4"))
	assert.Contains(t, out.String(), "Move accepted")
	assert.Contains(t, out.String(), "Engine played: e5")
	assert.Contains(t, out.String(), "Mirror the centre.")
	require.NotNil(t, s.GetState())
	assert.Equal(t, uint64(3), s.GetState().Version)
}

func TestErrorsArePrinted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions/abc/moves", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, core.ErrorResponse{Error: "illegal move", Code: core.ErrIllegalMove})
	})

	s, out := newTestSession(t, mux)
	reg := NewRegistry(s)

	require.NoError(t, reg.Execute("move e4"))
	assert.Contains(t, out.String(), errNoSession.Error())

	s.SetCurrentSession("abc")
	out.Reset()
	require.NoError(t, reg.Execute("move Ke2"))
	assert.Contains(t, out.String(), "illegal move (ILLEGAL_MOVE)")

	out.Reset()
	require.NoError(t, reg.Execute("castle"))
	assert.Contains(t, out.String(), "Unknown command: castle")
}

func TestGotoTranslatesPly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions/abc/navigate", func(w http.ResponseWriter, r *http.Request) {
		var req core.NavigateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "goto", req.Action)
		assert.Equal(t, -1, req.Index)
		writeJSON(w, core.SessionResponse{SessionID: "abc", Mode: "active", Turn: "w", Cursor: -1})
	})

	s, _ := newTestSession(t, mux)
	s.SetCurrentSession("abc")
	require.NoError(t, NewRegistry(s).Execute("goto 0"))
	assert.Equal(t, -1, s.GetState().Cursor)
}

func TestExitAndHelp(t *testing.T) {
	s, out := newTestSession(t, http.NotFoundHandler())
	reg := NewRegistry(s)

	require.NoError(t, reg.Execute("help"))
	assert.Contains(t, out.String(), "Navigation Commands")
	assert.Contains(t, out.String(), "continue")

	assert.ErrorIs(t, reg.Execute("x"), ErrExit)

	_, ok := reg.Lookup("analyze")
	assert.True(t, ok)
}

func TestURLCommand(t *testing.T) {
	s, out := newTestSession(t, http.NotFoundHandler())
	reg := NewRegistry(s)

	require.NoError(t, reg.Execute("url localhost:9090/"))
	assert.Equal(t, "http://localhost:9090", s.GetAPIBaseURL())
	assert.Equal(t, "http://localhost:9090", s.GetClient().BaseURL)

	out.Reset()
	require.NoError(t, reg.Execute("url http://"))
	assert.Contains(t, out.String(), "invalid API URL")
	assert.Equal(t, "http://localhost:9090", s.GetAPIBaseURL())
}
