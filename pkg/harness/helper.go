package harness

import (
	"testing"
)

// New returns a Runner wired for use inside a Go test. Mock state is swept
// automatically when the test finishes.
func New(t testing.TB, opts Options) *Runner {
	t.Helper()
	r := NewRunner(opts)
	t.Cleanup(func() {
		r.coordCleanup()
	})
	return r
}

// coordCleanup closes any context left open and sweeps the coordinator.
func (r *Runner) coordCleanup() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
	r.coord.ResetAll("test cleanup")
}
