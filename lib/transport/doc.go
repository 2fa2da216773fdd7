// Package transport defines how dMQ sockets reach their peers.
//
// A socket never talks to the network directly. It parses the user supplied
// address into an Endpoint and hands connection establishment to a connector
// for the endpoint's scheme. Connectors only create and tune raw net.Conn and
// net.Listener values, framing and peer bookkeeping stay in the socket.
//
// Key Components:
//
//   - IClientConnector / IServerConnector: the dial and listen halves a
//     transport implements. The tcp, unix and ws subpackages provide them.
//
//   - Endpoint / ParseAddress: normalises "tcp://host:port", "unix:///path",
//     "ws://host:port/path", bare ports ("3000") and "host:port" strings.
//
//   - Error classification: IsTransient reports the connection errors a
//     socket treats as routine (refused, reset, timed out, unreachable, broken
//     pipe, missing socket file). ErrorCode renders them for logs.
package transport
