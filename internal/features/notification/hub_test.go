package notification

import (
	"sync"
	"testing"
	"time"
)

func TestPublishTakesExclusiveLock(t *testing.T) {
	// Writers must be serialized: a websocket connection tolerates only one
	// concurrent writer, so Publish cannot run under the shared lock.
	hub := NewHub()
	hub.mu.RLock()

	done := make(chan struct{})
	go func() {
		hub.Publish("user-1", &Notification{Title: "hello"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Publish completed while a reader held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	hub.mu.RUnlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish never acquired the lock")
	}
}

func TestConcurrentPublishes(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish("user-1", &Notification{Title: "ping"})
			}
		}()
	}
	wg.Wait()
}
