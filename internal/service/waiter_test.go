package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySkipsCurrentVersion(t *testing.T) {
	w := NewWaitRegistry()
	req := w.Register("s", 3)
	defer w.Unregister(req)

	w.NotifySession("s", 3)
	select {
	case <-req.Notify:
		t.Fatal("notified for an unchanged version")
	default:
	}

	w.NotifySession("s", 4)
	w.NotifySession("s", 5) // coalesced into the buffered signal
	select {
	case <-req.Notify:
	default:
		t.Fatal("expected a notification")
	}
}

func TestWaitReturnsOnContextCancel(t *testing.T) {
	w := NewWaitRegistry()
	req := w.Register("s", 1)
	defer w.Unregister(req)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Wait(ctx, req)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait ignored cancellation")
	}
}

func TestShutdownReleasesWaiters(t *testing.T) {
	w := NewWaitRegistry()
	req := w.Register("s", 1)

	done := make(chan struct{})
	go func() {
		w.Wait(context.Background(), req)
		w.Unregister(req)
		close(done)
	}()

	// Let the waiter block
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Shutdown(time.Second))
	<-done
	assert.Equal(t, 0, w.Pending("s"))

	// Waiting after shutdown returns at once
	late := w.Register("s", 1)
	w.Wait(context.Background(), late)
	w.Unregister(late)
	assert.NoError(t, w.Shutdown(time.Second))
}
