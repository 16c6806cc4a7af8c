package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for session changes
type WaitRegistry struct {
	mu       sync.RWMutex
	waiters  map[string][]*WaitRequest // sessionID → waiting clients
	timeout  time.Duration
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for session updates
type WaitRequest struct {
	SessionID string
	Version   uint64        // Last version the client saw
	Notify    chan struct{} // Written only by the registry
}

// NewWaitRegistry creates a new wait registry
func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		timeout:  WaitTimeout,
		shutdown: make(chan struct{}),
	}
}

// Register adds a waiter for changes past version. Pair with Unregister.
func (w *WaitRegistry) Register(sessionID string, version uint64) *WaitRequest {
	req := &WaitRequest{
		SessionID: sessionID,
		Version:   version,
		Notify:    make(chan struct{}, WaitChannelBuffer),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.waiters[sessionID] = append(w.waiters[sessionID], req)
	return req
}

// Wait blocks until req is notified, the wait times out, ctx ends or the
// registry shuts down
func (w *WaitRegistry) Wait(ctx context.Context, req *WaitRequest) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	timeout := w.timeout
	w.mu.Unlock()
	defer w.wg.Done()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-req.Notify:
	case <-timer.C:
	case <-ctx.Done():
	case <-w.shutdown:
	}
}

// Unregister removes a specific waiter from the registry
func (w *WaitRegistry) Unregister(req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[req.SessionID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[req.SessionID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}

	// Clean up empty entries
	if len(w.waiters[req.SessionID]) == 0 {
		delete(w.waiters, req.SessionID)
	}
}

// NotifySession wakes every waiter on a session whose version differs
func (w *WaitRegistry) NotifySession(sessionID string, version uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, req := range w.waiters[sessionID] {
		if req.Version != version {
			select {
			case req.Notify <- struct{}{}:
			default:
				// Already signalled
			}
		}
	}
}

// RemoveSession wakes all waiters for a session (called before deletion)
func (w *WaitRegistry) RemoveSession(sessionID string) {
	w.mu.Lock()
	waitList := w.waiters[sessionID]
	delete(w.waiters, sessionID)
	w.mu.Unlock()

	for _, req := range waitList {
		select {
		case req.Notify <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of registered waiters for a session
func (w *WaitRegistry) Pending(sessionID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[sessionID])
}

// Shutdown releases every waiter and waits for them to return
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.shutdown)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timeout exceeded")
	}
}
