package plugin

import (
	"github.com/ValentinKolb/dMQ/lib/common"
)

var Logger = common.GetLogger("sock/queue")

// QueueOptions configures a Queue
type QueueOptions[T any] struct {
	// HWM is the maximum number of buffered items, common.Unbounded disables the limit
	HWM int
	// Resend is called for every item during Flush
	Resend func(item T)
	// OnDrop is called for items rejected by Enqueue
	OnDrop func(item T)
	// OnFlush is called after Flush with the items that were re-sent
	OnFlush func(items []T)
}

// Queue is a FIFO buffer for items waiting for a peer
type Queue[T any] struct {
	opts  QueueOptions[T]
	items []T
}

// NewQueue creates an empty queue
func NewQueue[T any](opts QueueOptions[T]) *Queue[T] {
	return &Queue[T]{opts: opts}
}

// Enqueue buffers item. It returns false and reports the item as dropped if
// the queue already holds HWM items.
func (q *Queue[T]) Enqueue(item T) bool {
	if q.opts.HWM != common.Unbounded && len(q.items) >= q.opts.HWM {
		Logger.Debugf("drop: queue holds %d items", len(q.items))
		if q.opts.OnDrop != nil {
			q.opts.OnDrop(item)
		}
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Flush swaps the buffer for an empty one and re-sends the previous items in
// order. Items that cannot be delivered again end up in the new buffer.
// Returns the number of items re-sent.
func (q *Queue[T]) Flush() int {
	prev := q.items
	q.items = nil

	Logger.Debugf("flush %d items", len(prev))
	if q.opts.Resend != nil {
		for _, item := range prev {
			q.opts.Resend(item)
		}
	}
	if q.opts.OnFlush != nil {
		q.opts.OnFlush(prev)
	}
	return len(prev)
}

// Len returns the number of buffered items
func (q *Queue[T]) Len() int {
	return len(q.items)
}
