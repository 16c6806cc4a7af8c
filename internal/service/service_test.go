package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/core"
	"chesstral/internal/engine"
	"chesstral/internal/position"
	"chesstral/internal/session"
	"chesstral/internal/storage"
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
	return engine.MoveResult{Move: mv, Rationale: "developing", Engine: q.Engine.Type}, nil
}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(t session.Task) error {
	t.Run(context.Background())
	return nil
}

func newTestService(t *testing.T, store *storage.Store, moves ...string) *Service {
	t.Helper()
	svc := New(Options{
		Store:      store,
		Mover:      &scriptedMover{moves: moves},
		Dispatcher: inlineDispatcher{},
	})
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	return svc
}

func newAuditStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())
	return store, path
}

func TestCreateGetDelete(t *testing.T) {
	svc := newTestService(t, nil)

	sess, err := svc.CreateSession(session.Config{Kind: core.KindResearch})
	require.NoError(t, err)

	got, err := svc.GetSession(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Len(t, svc.ListSessions(), 1)

	_, err = svc.CreateSession(session.Config{ID: sess.ID()})
	assert.Error(t, err)

	require.NoError(t, svc.DeleteSession(sess.ID()))
	_, err = svc.GetSession(sess.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(sess.ID()), ErrSessionNotFound)
}

func TestServiceDefaultsApplyToSessions(t *testing.T) {
	svc := New(Options{EvalDepth: 12, ContextOptIn: true})
	t.Cleanup(func() { svc.Shutdown(time.Second) })

	sess, err := svc.CreateSession(session.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, core.KindCompetitive, sess.Kind())
	assert.NotNil(t, svc.Book())
}

func TestStorageHealth(t *testing.T) {
	assert.Equal(t, "disabled", newTestService(t, nil).GetStorageHealth())

	store, _ := newAuditStore(t)
	assert.Equal(t, "ok", newTestService(t, store).GetStorageHealth())
}

func TestAuditTrail(t *testing.T) {
	store, path := newAuditStore(t)
	svc := New(Options{
		Store:      store,
		Mover:      &scriptedMover{moves: []string{"e4", "Nf3"}},
		Dispatcher: inlineDispatcher{},
	})

	sess, err := svc.CreateSession(session.Config{HumanSide: core.ColorBlack})
	require.NoError(t, err)
	id := sess.ID()

	require.NoError(t, sess.Start())
	require.NoError(t, sess.SubmitHumanMove(position.SAN("e5")))
	_, err = sess.RateCommentary(0, session.RatingInput{Quality: 25, Correctness: 20, Relevance: 15, Salience: 10})
	require.NoError(t, err)
	require.NoError(t, sess.Resign())

	snap := sess.Snapshot()
	require.Len(t, snap.Moves, 3)
	require.NoError(t, svc.Shutdown(time.Second))

	reader, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	defer reader.Close()

	sessions, err := reader.QuerySessions(id, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "competitive", sessions[0].Kind)
	assert.Equal(t, "b", sessions[0].HumanSide)
	assert.Equal(t, "1-0 (Black resigned)", sessions[0].Result)

	moves, err := reader.QueryMoves(id)
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, []string{moves[0].SAN, moves[1].SAN, moves[2].SAN})
	assert.Equal(t, "w", moves[0].PlayerColor)
	assert.Equal(t, snap.Moves[2].FEN(), moves[2].FENAfterMove)

	comments, err := reader.QueryCommentary(id)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "1.", comments[0].MoveNumber)
	assert.Equal(t, "1...", comments[1].MoveNumber)

	n, err := reader.CountRatings(id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTruncationRemovesRecordedMoves(t *testing.T) {
	store, path := newAuditStore(t)
	svc := New(Options{
		Store:      store,
		Mover:      &scriptedMover{moves: []string{"d4", "c4"}},
		Dispatcher: inlineDispatcher{},
	})

	sess, err := svc.CreateSession(session.Config{Kind: core.KindResearch, HumanSide: core.ColorBlack})
	require.NoError(t, err)
	id := sess.ID()
	require.NoError(t, sess.Start())
	require.NoError(t, sess.SubmitHumanMove(position.SAN("d5")))
	require.Len(t, sess.Snapshot().Moves, 3)

	sess.GoToMove(0)
	require.NoError(t, sess.ContinueFromHere())
	require.Len(t, sess.Snapshot().Moves, 1)
	require.NoError(t, svc.Shutdown(time.Second))

	reader, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	defer reader.Close()

	moves, err := reader.QueryMoves(id)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "d4", moves[0].SAN)
}

func TestLoadedGameIsRecorded(t *testing.T) {
	store, path := newAuditStore(t)
	svc := New(Options{Store: store, Dispatcher: inlineDispatcher{}})

	sess, err := svc.CreateSession(session.Config{})
	require.NoError(t, err)
	id := sess.ID()
	require.NoError(t, sess.LoadPosition("", "1. f3 e5 2. g4 Qh4#"))
	require.NoError(t, svc.Shutdown(time.Second))

	reader, err := storage.NewStore(path, false, nil)
	require.NoError(t, err)
	defer reader.Close()

	moves, err := reader.QueryMoves(id)
	require.NoError(t, err)
	assert.Len(t, moves, 4)

	sessions, err := reader.QuerySessions(id, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "checkmate", sessions[0].TerminalReason)
}

func TestWaitForChangeReturnsOnUpdate(t *testing.T) {
	svc := newTestService(t, nil)
	sess, err := svc.CreateSession(session.Config{})
	require.NoError(t, err)
	version := sess.Snapshot().Version

	done := make(chan session.Snapshot, 1)
	go func() {
		snap, err := svc.WaitForChange(context.Background(), sess.ID(), version)
		if err == nil {
			done <- snap
		}
		close(done)
	}()

	require.Eventually(t, func() bool {
		return svc.waiter.Pending(sess.ID()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sess.SetEngine(core.EngineSelection{Type: "mistral", Temperature: 0.5}))

	select {
	case snap, ok := <-done:
		require.True(t, ok)
		assert.Greater(t, snap.Version, version)
		assert.Equal(t, "mistral", snap.Engine.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken")
	}
	assert.Equal(t, 0, svc.waiter.Pending(sess.ID()))
}

func TestWaitForChangeStaleVersionReturnsImmediately(t *testing.T) {
	svc := newTestService(t, nil)
	sess, err := svc.CreateSession(session.Config{Kind: core.KindResearch})
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	snap, err := svc.WaitForChange(context.Background(), sess.ID(), 0)
	require.NoError(t, err)
	assert.NotZero(t, snap.Version)
}

func TestWaitForChangeTimesOut(t *testing.T) {
	svc := newTestService(t, nil)
	svc.waiter.timeout = 20 * time.Millisecond
	sess, err := svc.CreateSession(session.Config{})
	require.NoError(t, err)
	version := sess.Snapshot().Version

	start := time.Now()
	snap, err := svc.WaitForChange(context.Background(), sess.ID(), version)
	require.NoError(t, err)
	assert.Equal(t, version, snap.Version)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDeleteWakesWaiter(t *testing.T) {
	svc := newTestService(t, nil)
	sess, err := svc.CreateSession(session.Config{})
	require.NoError(t, err)
	version := sess.Snapshot().Version

	errc := make(chan error, 1)
	go func() {
		_, err := svc.WaitForChange(context.Background(), sess.ID(), version)
		errc <- err
	}()

	require.Eventually(t, func() bool {
		return svc.waiter.Pending(sess.ID()) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.DeleteSession(sess.ID()))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSessionNotFound)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestWaitForUnknownSession(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.WaitForChange(context.Background(), "nope", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
