package state

import (
	"fmt"
	"time"

	"github.com/maypok86/otter"
)

type memoryTracker struct {
	cache otter.Cache[int64, Session]
	now   func() time.Time
}

// NewMemoryTracker builds a Tracker on a bounded TTL cache.
func NewMemoryTracker(opts Options) (Tracker, error) {
	opts = opts.withDefaults()
	c, err := otter.MustBuilder[int64, Session](opts.Capacity).WithTTL(opts.TTL).Build()
	if err != nil {
		return nil, fmt.Errorf("session cache (capacity %d): %w", opts.Capacity, err)
	}
	return &memoryTracker{cache: c, now: time.Now}, nil
}

// Reset puts the chat into StateAwaitingCard, replacing any previous step.
func (m *memoryTracker) Reset(chatID int64) {
	m.cache.Set(chatID, Session{State: StateAwaitingCard, UpdatedAt: m.now()})
}

// Step returns the current step, StateIdle for unknown or expired chats.
func (m *memoryTracker) Step(chatID int64) State {
	if sess, ok := m.cache.Get(chatID); ok {
		return sess.State
	}
	return StateIdle
}

func (m *memoryTracker) Clear(chatID int64) {
	m.cache.Delete(chatID)
}

func (m *memoryTracker) Len() int {
	return m.cache.Size()
}

func (m *memoryTracker) Close() {
	m.cache.Close()
}
