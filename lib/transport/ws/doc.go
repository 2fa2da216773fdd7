// Package ws carries dMQ connections over WebSockets.
//
// The connector wraps a github.com/gorilla/websocket connection into a
// net.Conn: written bytes travel as binary messages, reads return the
// concatenated payload of incoming binary messages. The byte stream is framed
// by the socket exactly like a TCP stream, so message boundaries of the
// WebSocket layer carry no meaning.
//
// Listening starts an HTTP server on the URL's host that upgrades requests
// for the URL's path. Plain ws:// is supported for both directions, wss:// for
// dialing only.
package ws
