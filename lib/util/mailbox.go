package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type slot[T any] struct {
	value T
	next  atomic.Pointer[slot[T]]
}

// Mailbox is an unbounded lock-free multi-producer single-consumer queue
type Mailbox[T any] struct {
	head atomic.Pointer[slot[T]] // consumer side, always a consumed sentinel
	tail atomic.Pointer[slot[T]] // producer side

	out    chan T
	closed atomic.Bool
	size   atomic.Int64
	done   chan struct{}

	// producers hold the read lock while linking, Close takes the write lock
	gate sync.RWMutex

	mu   sync.Mutex
	cond *sync.Cond
}

// NewMailbox creates a mailbox and starts the goroutine feeding C()
func NewMailbox[T any]() *Mailbox[T] {
	sentinel := &slot[T]{}

	m := &Mailbox[T]{
		out:  make(chan T),
		done: make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	m.head.Store(sentinel)
	m.tail.Store(sentinel)

	go m.pump()
	return m
}

// Put appends v. It returns false if the mailbox is closed. Every value
// accepted by Put is delivered, also when Close runs concurrently.
func (m *Mailbox[T]) Put(v T) bool {
	m.gate.RLock()
	defer m.gate.RUnlock()
	if m.closed.Load() {
		return false
	}

	n := &slot[T]{value: v}
	var spins uint8

	for {
		tail := m.tail.Load()
		next := tail.next.Load()

		if next != nil {
			// another producer linked a node but did not advance the tail yet
			m.tail.CompareAndSwap(tail, next)
		} else if tail.next.CompareAndSwap(nil, n) {
			m.tail.CompareAndSwap(tail, n)
			m.size.Add(1)
			m.wake()
			return true
		}

		// back off under contention, spinning first and yielding later
		if spins < 10 {
			spins++
			for i := 0; i < 1<<spins; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the pump while holding the lock, so the signal cannot slip
// between the pump's emptiness check and its Wait
func (m *Mailbox[T]) wake() {
	m.mu.Lock()
	m.cond.Signal()
	m.mu.Unlock()
}

func (m *Mailbox[T]) pump() {
	defer close(m.done)
	defer close(m.out)

	var zero T
	for {
		head := m.head.Load()
		next := head.next.Load()

		if next != nil {
			v := next.value
			m.head.Store(next)
			next.value = zero
			m.size.Add(-1)
			m.out <- v
			continue
		}

		if m.closed.Load() {
			// a value linked right before Close may not have been visible above
			if m.head.Load().next.Load() == nil {
				return
			}
			continue
		}

		m.mu.Lock()
		if m.head.Load().next.Load() == nil && !m.closed.Load() {
			m.cond.Wait()
		}
		m.mu.Unlock()
	}
}

// C returns the channel the consumer receives from.
// It is closed once the mailbox was closed and all queued values were delivered.
func (m *Mailbox[T]) C() <-chan T {
	return m.out
}

// Close rejects further Put calls. Values already queued are still delivered.
func (m *Mailbox[T]) Close() {
	m.gate.Lock()
	m.closed.Store(true)
	m.gate.Unlock()
	m.wake()
}

// Closed reports whether Close was called
func (m *Mailbox[T]) Closed() bool {
	return m.closed.Load()
}

// Pending returns the number of values waiting for the consumer
func (m *Mailbox[T]) Pending() int {
	return int(m.size.Load())
}

// Drained is closed once the pump goroutine exited
func (m *Mailbox[T]) Drained() <-chan struct{} {
	return m.done
}
