package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/storage"
)

func seed(t *testing.T, path string) {
	t.Helper()
	store, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	store.RecordSession(storage.SessionRecord{
		SessionID:  "0f8fad5b-d9cb-469f-a165-70867728950e",
		Kind:       "research",
		HumanSide:  "w",
		EngineType: "stockfish",
		InitialFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	})
	store.RecordMove(storage.MoveRecord{
		SessionID:    "0f8fad5b-d9cb-469f-a165-70867728950e",
		Ply:          1,
		SAN:          "d4",
		UCI:          "d2d4",
		FENAfterMove: "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq - 0 1",
		PlayerColor:  "w",
	})
	require.NoError(t, store.Close())
}

func TestInitQueryMovesDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	var out bytes.Buffer

	require.NoError(t, run([]string{"init", "-path", path}, &out))
	assert.Contains(t, out.String(), "Database initialized")

	out.Reset()
	require.NoError(t, run([]string{"query", "-path", path}, &out))
	assert.Contains(t, out.String(), "No sessions found")

	seed(t, path)

	out.Reset()
	require.NoError(t, run([]string{"query", "-path", path, "-kind", "research"}, &out))
	assert.Contains(t, out.String(), "0f8fad5b...")
	assert.Contains(t, out.String(), "stockfish")
	assert.Contains(t, out.String(), "Found 1 session(s)")

	out.Reset()
	require.NoError(t, run([]string{"query", "-path", path, "-kind", "competitive"}, &out))
	assert.Contains(t, out.String(), "No sessions found")

	out.Reset()
	require.NoError(t, run([]string{"moves", "-path", path, "-sessionId", "0f8fad5b-d9cb-469f-a165-70867728950e"}, &out))
	assert.Contains(t, out.String(), "d2d4")
	assert.Contains(t, out.String(), "Found 1 move(s)")

	out.Reset()
	require.NoError(t, run([]string{"delete", "-path", path}, &out))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestArgumentErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"vacuum"}, &out))
	assert.ErrorContains(t, run([]string{"init"}, &out), "database path required")
	assert.ErrorContains(t, run([]string{"moves", "-path", "x.db"}, &out), "session id required")
}
