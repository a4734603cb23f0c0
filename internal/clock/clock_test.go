package clock

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestManualClock(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(base)

	if !c.Now().Equal(base) {
		t.Errorf("Now() = %v, want %v", c.Now(), base)
	}

	c.Advance(90 * time.Second)
	if want := base.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", c.Now(), want)
	}

	pin := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(pin)
	if !c.Now().Equal(pin) {
		t.Errorf("after Set, Now() = %v, want %v", c.Now(), pin)
	}
}

func TestManualClockZeroValue(t *testing.T) {
	before := time.Now()
	c := NewManual(time.Time{})
	if c.Now().Before(before.Add(-time.Second)) {
		t.Error("zero-initialized manual clock should pin to roughly now")
	}
}
