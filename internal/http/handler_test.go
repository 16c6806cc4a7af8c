package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/processor"
	"chesstral/internal/service"
	"chesstral/internal/session"
)

type scriptedMover struct {
	mu    sync.Mutex
	moves []string
}

func (m *scriptedMover) RequestMove(_ context.Context, q engine.MoveQuery) (engine.MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.moves) == 0 {
		return engine.MoveResult{}, &engine.EngineMoveFailure{Kind: engine.FailureApplication, Message: "out of moves"}
	}
	mv := m.moves[0]
	m.moves = m.moves[1:]
	return engine.MoveResult{Move: mv, Rationale: "book", Engine: q.Engine.Type}, nil
}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(t session.Task) error {
	t.Run(context.Background())
	return nil
}

type testAPI struct {
	app *fiber.App
	svc *service.Service
}

func newTestAPI(t *testing.T, moves ...string) *testAPI {
	t.Helper()
	svc := service.New(service.Options{
		Mover:      &scriptedMover{moves: moves},
		Dispatcher: inlineDispatcher{},
	})
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	proc := processor.New(svc, processor.Options{})
	return &testAPI{app: NewFiberApp(proc, svc, Config{RateLimit: 1000}), svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (a *testAPI) create(t *testing.T, body string) core.SessionResponse {
	t.Helper()
	status, data := a.do(t, fiber.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, fiber.StatusCreated, status, string(data))
	var s core.SessionResponse
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func decodeError(t *testing.T, data []byte) core.ErrorResponse {
	t.Helper()
	var e core.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return e
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	status, data := api.do(t, fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, status)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["storage"])
}

func TestPlayOverHTTP(t *testing.T) {
	api := newTestAPI(t, "e4", "Nf3")
	s := api.create(t, `{"humanSide":"b","start":true}`)
	require.Len(t, s.Moves, 1)
	path := "/api/v1/sessions/" + s.SessionID

	status, data := api.do(t, fiber.MethodPost, path+"/moves", `{"move":"e5"}`)
	require.Equal(t, fiber.StatusOK, status, string(data))
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Len(t, s.Moves, 3)

	status, data = api.do(t, fiber.MethodGet, path+"/commentary", "")
	require.Equal(t, fiber.StatusOK, status)
	var entries []core.CommentaryInfo
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 3)

	status, _ = api.do(t, fiber.MethodPost, path+"/commentary/0/rating", `{"quality":25,"correctness":25,"relevance":25,"salience":25}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, data = api.do(t, fiber.MethodPost, path+"/commentary/9/review", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.ErrInvalidRequest, decodeError(t, data).Code)

	status, data = api.do(t, fiber.MethodPost, path+"/moves", `{"move":"Ke6"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, core.ErrIllegalMove, decodeError(t, data).Code)

	status, data = api.do(t, fiber.MethodPost, path+"/navigate", `{"action":"start"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, data = api.do(t, fiber.MethodPost, path+"/moves", `{"move":"Nc6"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.ErrNotLive, decodeError(t, data).Code)
}

func TestBoardFormats(t *testing.T) {
	api := newTestAPI(t)
	s := api.create(t, `{"pgn":"1. e4 e5"}`)
	path := "/api/v1/sessions/" + s.SessionID + "/board"

	status, data := api.do(t, fiber.MethodGet, path, "")
	require.Equal(t, fiber.StatusOK, status)
	var b core.BoardResponse
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, s.FEN, b.FEN)

	req := httptest.NewRequest(fiber.MethodGet, path+"?format=svg", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	svgBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(svgBody), "<svg")

	status, _ = api.do(t, fiber.MethodGet, path+"?format=png", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestValidation(t *testing.T) {
	api := newTestAPI(t)

	status, data := api.do(t, fiber.MethodPost, "/api/v1/sessions", `{"kind":"blitz"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	e := decodeError(t, data)
	assert.Equal(t, "validation failed", e.Error)
	assert.Contains(t, e.Details, "Kind must be one of")

	status, data = api.do(t, fiber.MethodPost, "/api/v1/sessions", `{"kind":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid request body", decodeError(t, data).Error)

	s := api.create(t, `{}`)
	path := "/api/v1/sessions/" + s.SessionID
	status, data = api.do(t, fiber.MethodPost, path+"/moves", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, data).Details, "Move is required")

	status, data = api.do(t, fiber.MethodPut, path+"/engine", `{"engine":{"type":"nanogpt","temperature":3}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, data).Details, "Temperature must be at most 1")

	req := httptest.NewRequest(fiber.MethodPost, path+"/moves", strings.NewReader("e4"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	status, data = api.do(t, fiber.MethodGet, "/api/v1/sessions/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid session ID format", decodeError(t, data).Error)
}

func TestSessionNotFound(t *testing.T) {
	api := newTestAPI(t)
	path := "/api/v1/sessions/6f1c1d6e-4a8e-4a4e-9f32-1d2d3a4b5c6d"

	status, data := api.do(t, fiber.MethodGet, path, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, core.ErrSessionNotFound, decodeError(t, data).Code)

	status, _ = api.do(t, fiber.MethodGet, path+"?wait=true&version=0", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = api.do(t, fiber.MethodDelete, path, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLifecycleRoutes(t *testing.T) {
	api := newTestAPI(t)
	s := api.create(t, `{"humanSide":"w","kind":"research","start":true}`)
	path := "/api/v1/sessions/" + s.SessionID

	status, data := api.do(t, fiber.MethodPost, path+"/position", `{"fen":"8/8/8/8/8/5k2/8/4K2R w K - 0 1"}`)
	require.Equal(t, fiber.StatusOK, status, string(data))
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "active", s.Mode)
	assert.Empty(t, s.Moves)

	status, data = api.do(t, fiber.MethodPut, path+"/side", `{"side":"black"}`)
	require.Equal(t, fiber.StatusOK, status, string(data))
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "b", s.HumanSide)

	status, data = api.do(t, fiber.MethodPost, path+"/resign", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "1-0 (Black resigned)", s.Result)

	status, _ = api.do(t, fiber.MethodPost, path+"/resign", "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, data = api.do(t, fiber.MethodPost, path+"/reset", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "active", s.Mode)

	status, data = api.do(t, fiber.MethodGet, path+"/evaluation", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, core.ErrEvaluationUnavailable, decodeError(t, data).Code)

	status, data = api.do(t, fiber.MethodGet, path+"/opening", "")
	require.Equal(t, fiber.StatusOK, status)

	status, _ = api.do(t, fiber.MethodGet, "/api/v1/sessions", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = api.do(t, fiber.MethodDelete, path, "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestLongPoll(t *testing.T) {
	api := newTestAPI(t)
	s := api.create(t, `{"humanSide":"w","start":true}`)
	path := "/api/v1/sessions/" + s.SessionID

	// A stale version answers at once
	status, data := api.do(t, fiber.MethodGet, path+"?wait=true&version=0", "")
	require.Equal(t, fiber.StatusOK, status)
	var got core.SessionResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.Version, got.Version)

	type result struct {
		status int
		body   []byte
	}
	done := make(chan result, 1)
	go func() {
		req := httptest.NewRequest(fiber.MethodGet, path+"?wait=true&version="+strconv.FormatUint(s.Version, 10), nil)
		resp, err := api.app.Test(req, -1)
		if err != nil {
			done <- result{}
			return
		}
		body, _ := io.ReadAll(resp.Body)
		done <- result{resp.StatusCode, body}
	}()

	require.Eventually(t, func() bool {
		return api.svc.Waiting(s.SessionID) == 1
	}, 2*time.Second, 5*time.Millisecond)

	status, _ = api.do(t, fiber.MethodPost, path+"/moves", `{"move":"e4"}`)
	require.Equal(t, fiber.StatusOK, status)

	select {
	case r := <-done:
		require.Equal(t, fiber.StatusOK, r.status)
		require.NoError(t, json.Unmarshal(r.body, &got))
		assert.Greater(t, got.Version, s.Version)
		assert.Len(t, got.Moves, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not return")
	}

	status, _ = api.do(t, fiber.MethodGet, path+"?wait=true&version=x", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	status, data := api.do(t, fiber.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, core.ErrInvalidRequest, decodeError(t, data).Code)
}
