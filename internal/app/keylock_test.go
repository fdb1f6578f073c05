package app

import (
	"sync"
	"testing"
	"time"
)

func TestKeyLocksSerializeSameKey(t *testing.T) {
	locks := newKeyLocks()

	unlock := locks.lock("1:2:upvote")
	acquired := make(chan struct{})
	go func() {
		u := locks.lock("1:2:upvote")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}

	other := locks.lock("1:3:upvote")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired")
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("expected no tracked keys, got %d", n)
	}
}

func TestKeyLocksCounter(t *testing.T) {
	locks := newKeyLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("k")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("expected no tracked keys, got %d", n)
	}
}
