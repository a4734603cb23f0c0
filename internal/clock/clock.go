// Package clock abstracts time for components that stamp records and derive
// error codes, so tests can pin time instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a hand-advanced clock for tests.
type Manual struct {
	mu      sync.RWMutex
	current time.Time
}

// NewManual creates a manual clock pinned to t. A zero t pins the clock to
// the current time.
func NewManual(t time.Time) *Manual {
	if t.IsZero() {
		t = time.Now()
	}
	return &Manual{current: t}
}

// Now returns the pinned time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set pins the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}
