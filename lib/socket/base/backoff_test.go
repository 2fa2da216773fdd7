package base

import (
	"testing"
	"time"
)

func TestBackoffGrowth(t *testing.T) {
	b := NewBackoff(200*time.Millisecond, 5*time.Second)

	want := []time.Duration{300 * time.Millisecond, 450 * time.Millisecond, 675 * time.Millisecond}
	for i, w := range want {
		if got := b.Grow(); got != w {
			t.Errorf("attempt %d: expected %s, got %s", i+1, w, got)
		}
	}

	// the fourth attempt waits base * 1.5^3
	if b.Current() != 675*time.Millisecond {
		t.Errorf("Expected 675ms, got %s", b.Current())
	}

	b.Reset()
	if b.Current() != 200*time.Millisecond {
		t.Errorf("Expected reset to base, got %s", b.Current())
	}
}

func TestBackoffRoundsToMilliseconds(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Minute)
	b.Grow() // 150ms
	b.Grow() // 225ms
	if got := b.Grow(); got != 338*time.Millisecond {
		t.Errorf("Expected 338ms, got %s", got)
	}
}

func TestBackoffCap(t *testing.T) {
	b := NewBackoff(4*time.Second, 5*time.Second)
	if got := b.Grow(); got != 5*time.Second {
		t.Errorf("Expected cap of 5s, got %s", got)
	}
	if got := b.Grow(); got != 5*time.Second {
		t.Errorf("Expected to stay at 5s, got %s", got)
	}
}

func TestBackoffDisabled(t *testing.T) {
	if !NewBackoff(0, time.Second).Disabled() {
		t.Errorf("Expected zero base to disable reconnects")
	}
	if NewBackoff(time.Millisecond, time.Second).Disabled() {
		t.Errorf("Expected non zero base to enable reconnects")
	}
}
