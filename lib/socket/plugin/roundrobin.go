package plugin

// Writable is implemented by peers a RoundRobin can select
type Writable interface {
	Writable() bool
}

// RoundRobin rotates over a peer list. The cursor advances on every
// selection, also when the list is empty.
type RoundRobin[P Writable] struct {
	n uint64
}

// Next returns the next peer in rotation, ok is false for an empty list
func (r *RoundRobin[P]) Next(peers []P) (peer P, ok bool) {
	n := r.n
	r.n++
	if len(peers) == 0 {
		return peer, false
	}
	return peers[n%uint64(len(peers))], true
}

// Dispatch selects the next peer and calls write if it is writable, otherwise
// fallback. It reports whether write was called.
func (r *RoundRobin[P]) Dispatch(peers []P, write func(P), fallback func()) bool {
	peer, ok := r.Next(peers)
	if ok && peer.Writable() {
		write(peer)
		return true
	}
	fallback()
	return false
}
