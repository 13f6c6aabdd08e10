package state

import (
	"sync"
	"testing"
	"time"
)

func newTracker(t *testing.T, opts Options) Tracker {
	t.Helper()
	tr, err := NewMemoryTracker(opts)
	if err != nil {
		t.Fatalf("NewMemoryTracker: %v", err)
	}
	t.Cleanup(tr.Close)
	return tr
}

func TestTrackerReset(t *testing.T) {
	tr := newTracker(t, Options{})
	if got := tr.Step(10); got != StateIdle {
		t.Fatalf("unknown chat step = %s", got)
	}
	tr.Reset(10)
	tr.Reset(10)
	if got := tr.Step(10); got != StateAwaitingCard {
		t.Fatalf("step after reset = %s", got)
	}
	if got := tr.Step(11); got != StateIdle {
		t.Fatalf("other chat leaked state: %s", got)
	}
	tr.Clear(10)
	if got := tr.Step(10); got != StateIdle {
		t.Fatalf("step after clear = %s", got)
	}
}

func TestTrackerExpires(t *testing.T) {
	tr := newTracker(t, Options{TTL: 50 * time.Millisecond})
	tr.Reset(1)
	deadline := time.Now().Add(3 * time.Second)
	for tr.Step(1) != StateIdle {
		if time.Now().After(deadline) {
			t.Fatal("session did not expire")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestTrackerConcurrentReset(t *testing.T) {
	tr := newTracker(t, Options{})
	var wg sync.WaitGroup
	for i := int64(0); i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			tr.Reset(id)
			_ = tr.Step(id)
		}(i)
	}
	wg.Wait()
	for i := int64(0); i < 32; i++ {
		if tr.Step(i) != StateAwaitingCard {
			t.Fatalf("chat %d lost its session", i)
		}
	}
}
