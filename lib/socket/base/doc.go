// Package base implements the connection manager every dMQ socket type is
// built on.
//
// A Socket owns a set of peers (established connections). It either dials
// out (client role, via Connect) or accepts connections (server role, via
// Bind), never both. Client connections are re-established automatically
// with exponential backoff after they drop.
//
// Concurrency model:
//
// Every Socket runs a single control loop goroutine fed by a util.Mailbox of
// closures. All socket state (peers, listener, reconnect timers, the state of
// the protocol built on top) is only touched on that loop. Network I/O runs
// on helper goroutines per peer (one reader, one writer) plus one acceptor
// and one goroutine per dial attempt. They never touch socket state, they
// post their results to the loop instead. Public methods (Bind, Connect,
// Close and the Send methods of the socket types) validate synchronously and
// post the actual work, so they never block on the network.
//
// Key Components:
//
//   - Socket: role handling, peer set, error classification, reconnects,
//     close sequencing. Hooks for notifications are passed as Events.
//
//   - Peer: one connection with a bounded outgoing queue. A peer is writable
//     while it is open and its queue has room.
//
//   - Protocol: implemented by the socket types (pub, sub, push, ...) to
//     receive decoded messages and peer-available notifications.
//
//   - Backoff: the reconnect delay, growing by 1.5x per attempt up to a maximum.
package base
