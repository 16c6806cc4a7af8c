// Package service owns the live sessions: it creates and looks them up,
// records their activity to the optional audit store and wakes long-polling
// clients when a session changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chesstral/internal/opening"
	"chesstral/internal/session"
	"chesstral/internal/storage"
)

// ErrSessionNotFound is returned for unknown session ids
var ErrSessionNotFound = errors.New("session not found")

// Options carries the collaborators handed to every session
type Options struct {
	Store        *storage.Store // nil if persistence disabled
	Mover        session.MoveRequester
	Evaluator    session.Evaluator
	Rater        session.RatingSubmitter
	Dispatcher   session.Dispatcher
	Book         *opening.Book
	EvalDepth    int
	AutoEvaluate bool
	ContextOptIn bool
	Logger       *zap.Logger
}

// Service is the session registry with optional persistence
type Service struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
	opts     Options
	store    *storage.Store
	waiter   *WaitRegistry
	book     *opening.Book
	logger   *zap.Logger
}

// New creates a service; a nil book is replaced by an empty one that falls
// back to the built-in ECO list
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("service")
	book := opts.Book
	if book == nil {
		book = opening.NewBook(opts.Logger)
	}
	return &Service{
		sessions: make(map[string]*session.Session),
		opts:     opts,
		store:    opts.Store,
		waiter:   NewWaitRegistry(),
		book:     book,
		logger:   logger,
	}
}

// CreateSession registers a new session in Setup. Zero fields of cfg take the
// service defaults.
func (s *Service) CreateSession(cfg session.Config) (*session.Session, error) {
	if cfg.EvalDepth == 0 {
		cfg.EvalDepth = s.opts.EvalDepth
	}
	if !cfg.AutoEvaluate {
		cfg.AutoEvaluate = s.opts.AutoEvaluate
	}
	if !cfg.ContextOptIn {
		cfg.ContextOptIn = s.opts.ContextOptIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ID == "" {
		cfg.ID = s.generateIDLocked()
	}
	if _, exists := s.sessions[cfg.ID]; exists {
		return nil, fmt.Errorf("session %s already exists", cfg.ID)
	}

	sess := session.New(cfg, session.Deps{
		Mover:      s.opts.Mover,
		Evaluator:  s.opts.Evaluator,
		Rater:      s.opts.Rater,
		Dispatcher: s.opts.Dispatcher,
		Observer:   s.observe,
		Logger:     s.opts.Logger,
	})
	s.sessions[cfg.ID] = sess

	if s.store != nil {
		s.store.RecordSession(sessionRecord(sess.Snapshot()))
	}
	s.logger.Info("session created",
		zap.String("session", cfg.ID),
		zap.String("kind", cfg.Kind.String()),
	)
	return sess, nil
}

// generateIDLocked creates a new unique session ID
func (s *Service) generateIDLocked() string {
	for {
		id := uuid.New().String()
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// ListSessions returns snapshots of every live session, newest first
func (s *Service) ListSessions() []session.Snapshot {
	s.mu.RLock()
	out := make([]session.Snapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// DeleteSession removes a session from memory and the audit store
func (s *Service) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	// Wake waiters before the session disappears
	s.waiter.RemoveSession(id)
	delete(s.sessions, id)

	if s.store != nil {
		s.store.DeleteSession(id)
	}
	return nil
}

// WaitForChange blocks until the session's version differs from version, the
// wait times out or ctx ends, then returns the current snapshot
func (s *Service) WaitForChange(ctx context.Context, id string, version uint64) (session.Snapshot, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	req := s.waiter.Register(id, version)
	defer s.waiter.Unregister(req)

	// A change between the client's read and registration is not missed
	if snap := sess.Snapshot(); snap.Version != version {
		return snap, nil
	}

	s.waiter.Wait(ctx, req)

	sess, err = s.GetSession(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Waiting returns the number of clients long-polling a session
func (s *Service) Waiting(id string) int {
	return s.waiter.Pending(id)
}

// Book returns the opening book shared by all sessions
func (s *Service) Book() *opening.Book {
	return s.book
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Store returns the audit store, nil when persistence is disabled
func (s *Service) Store() *storage.Store {
	return s.store
}

// Shutdown releases waiters, drops all sessions and closes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	return errors.Join(errs...)
}
