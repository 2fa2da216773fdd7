package base

import (
	"github.com/ValentinKolb/dMQ/lib/message"
)

// Events holds optional notification hooks. Hooks run on the control loop of
// the socket, they must not block but may call any socket method.
type Events struct {
	// OnConnect is called when an outgoing connection was established
	OnConnect func(p *Peer)
	// OnConnection is called when a bound socket accepted a connection
	OnConnection func(p *Peer)
	// OnDisconnect is called when an accepted connection closed
	OnDisconnect func(p *Peer)
	// OnReconnectAttempt is called right before a dropped connection is dialed again
	OnReconnectAttempt func()
	// OnBind is called once the socket listens
	OnBind func()
	// OnClose is called when the socket finished closing, and when an outgoing
	// connection dropped while reconnecting is disabled
	OnClose func()

	// OnMessage receives every message the socket type delivers to the application.
	// Rep sockets report each request (without its id) before the request handler runs.
	OnMessage func(p *Peer, msg message.Message)
	// OnDrop is called for messages discarded because the queue reached its high water mark
	OnDrop func(msg message.Message)
	// OnFlush is called with the messages re-sent after a peer became available
	OnFlush func(msgs []message.Message)

	// OnSocketError is called for every connection error
	OnSocketError func(err error)
	// OnError is called for connection errors that are not routine
	OnError func(err error)
	// OnIgnoredError is called for routine connection errors (refused, reset, ...)
	OnIgnoredError func(err error)
}

// Protocol is implemented by the socket types built on Socket.
// Both methods run on the control loop.
type Protocol interface {
	// HandleMessage is called for every message decoded from a peer
	HandleMessage(p *Peer, msg message.Message)
	// PeerAvailable is called after a connection was established or accepted
	PeerAvailable(p *Peer)
}

// --------------------------------------------------------------------------
// Emit helpers
// --------------------------------------------------------------------------

// EmitMessage hands a message to the application
func (s *Socket) EmitMessage(p *Peer, msg message.Message) {
	if s.events.OnMessage != nil {
		s.events.OnMessage(p, msg)
	}
}

// EmitDrop reports a message discarded by a full queue
func (s *Socket) EmitDrop(msg message.Message) {
	s.metrics.dropped.Inc()
	if s.events.OnDrop != nil {
		s.events.OnDrop(msg)
	}
}

// EmitFlush reports the messages re-sent from a queue
func (s *Socket) EmitFlush(msgs []message.Message) {
	s.metrics.flushed.Add(len(msgs))
	if s.events.OnFlush != nil {
		s.events.OnFlush(msgs)
	}
}

func (s *Socket) emitClose() {
	if s.events.OnClose != nil {
		s.events.OnClose()
	}
}
