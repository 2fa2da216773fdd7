package plugin

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dMQ/lib/common"
)

type fakePeer struct {
	id       int
	writable bool
}

func (p *fakePeer) Writable() bool { return p.writable }

func TestQueueHWM(t *testing.T) {
	var dropped []int
	q := NewQueue(QueueOptions[int]{
		HWM:    2,
		OnDrop: func(i int) { dropped = append(dropped, i) },
	})

	for i := 1; i <= 4; i++ {
		q.Enqueue(i)
	}

	if q.Len() != 2 {
		t.Errorf("Expected 2 buffered items, got %d", q.Len())
	}
	if !reflect.DeepEqual(dropped, []int{3, 4}) {
		t.Errorf("Expected 3 and 4 to be dropped, got %v", dropped)
	}
}

func TestQueueZeroHWMDropsEverything(t *testing.T) {
	drops := 0
	q := NewQueue(QueueOptions[string]{HWM: 0, OnDrop: func(string) { drops++ }})
	if q.Enqueue("x") {
		t.Errorf("Expected enqueue to fail")
	}
	if drops != 1 || q.Len() != 0 {
		t.Errorf("Expected one drop and an empty queue, got %d / %d", drops, q.Len())
	}
}

func TestQueueUnbounded(t *testing.T) {
	q := NewQueue(QueueOptions[int]{HWM: common.Unbounded})
	for i := 0; i < 10000; i++ {
		if !q.Enqueue(i) {
			t.Fatalf("Unexpected drop at %d", i)
		}
	}
	if q.Len() != 10000 {
		t.Errorf("Expected 10000 items, got %d", q.Len())
	}
}

func TestQueueFlush(t *testing.T) {
	var q *Queue[int]
	var resent, flushed []int
	requeue := true
	q = NewQueue(QueueOptions[int]{
		HWM: common.Unbounded,
		Resend: func(i int) {
			resent = append(resent, i)
			// the first item cannot be delivered and goes back into the queue
			if requeue {
				requeue = false
				q.Enqueue(i)
			}
		},
		OnFlush: func(items []int) { flushed = items },
	})

	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}

	if n := q.Flush(); n != 3 {
		t.Errorf("Expected 3 flushed items, got %d", n)
	}
	if !reflect.DeepEqual(resent, []int{1, 2, 3}) || !reflect.DeepEqual(flushed, []int{1, 2, 3}) {
		t.Errorf("Unexpected flush order: resent %v flushed %v", resent, flushed)
	}
	if q.Len() != 1 {
		t.Errorf("Expected the re-queued item to stay buffered, got %d", q.Len())
	}
}

func TestRoundRobinFairness(t *testing.T) {
	peers := []*fakePeer{{id: 0, writable: true}, {id: 1, writable: true}, {id: 2, writable: true}}
	var rr RoundRobin[*fakePeer]

	counts := make([]int, len(peers))
	for i := 0; i < 300; i++ {
		rr.Dispatch(peers, func(p *fakePeer) { counts[p.id]++ }, func() { t.Fatalf("unexpected fallback") })
	}
	for i, c := range counts {
		if c != 100 {
			t.Errorf("peer %d: expected 100 messages, got %d", i, c)
		}
	}
}

func TestRoundRobinFallback(t *testing.T) {
	peers := []*fakePeer{{id: 0, writable: true}, {id: 1, writable: false}}
	var rr RoundRobin[*fakePeer]

	var written, fallbacks int
	write := func(*fakePeer) { written++ }
	fallback := func() { fallbacks++ }

	rr.Dispatch(peers, write, fallback)
	rr.Dispatch(peers, write, fallback)
	if written != 1 || fallbacks != 1 {
		t.Errorf("Expected one write and one fallback, got %d / %d", written, fallbacks)
	}

	// no peers at all
	if rr.Dispatch(nil, write, fallback) || fallbacks != 2 {
		t.Errorf("Expected fallback without peers")
	}
}

func TestRoundRobinCursorAdvancesWithoutPeers(t *testing.T) {
	var rr RoundRobin[*fakePeer]
	rr.Next(nil)
	peers := []*fakePeer{{id: 0}, {id: 1}}
	if p, ok := rr.Next(peers); !ok || p.id != 1 {
		t.Errorf("Expected second peer after an empty selection, got %v", p)
	}
}
