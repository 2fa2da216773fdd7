package base

import (
	"math"
	"time"
)

const backoffFactor = 1.5

// Backoff tracks the reconnect delay of a socket.
// Each attempt grows the delay by 1.5x (rounded to milliseconds) up to max,
// a successful connect resets it to base. A zero base disables reconnecting.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff creates a backoff starting at base
func NewBackoff(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, current: base}
}

// Disabled reports whether reconnecting is turned off
func (b *Backoff) Disabled() bool {
	return b.base <= 0
}

// Current returns the delay before the next attempt
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Grow advances the delay after an attempt and returns the new value
func (b *Backoff) Grow() time.Duration {
	ms := math.Round(float64(b.current) * backoffFactor / float64(time.Millisecond))
	next := time.Duration(ms) * time.Millisecond
	if next > b.max {
		next = b.max
	}
	b.current = next
	return next
}

// Reset restores the base delay
func (b *Backoff) Reset() {
	b.current = b.base
}
