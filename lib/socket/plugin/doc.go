// Package plugin provides the delivery strategies shared by the socket types.
//
// Key Components:
//
//   - Queue: buffers outgoing items while no peer can take them. The socket
//     flushes it whenever a peer becomes available. Items beyond the high
//     water mark are dropped and reported.
//
//   - RoundRobin: picks the next peer in rotation for every outgoing message
//     and falls back (usually to the queue) when the selected peer is missing
//     or not writable.
//
// Neither type is safe for concurrent use, both are driven from the control
// loop of their socket.
package plugin
