package socket

import (
	"fmt"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
)

// Pub broadcasts every message to all connected peers
type Pub struct {
	*base.Socket
}

// NewPub creates a pub socket
func NewPub(config common.SocketConfig, events base.Events) (*Pub, error) {
	s := &Pub{}
	sock, err := base.NewSocket("pub", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	return s, nil
}

// Send writes the message to every writable peer. Peers that are not
// writable miss the message, nothing is buffered.
func (s *Pub) Send(frames ...[]byte) error {
	return s.SendWithCallback(nil, frames...)
}

// SendWithCallback works like Send and calls done on the control loop once
// every peer's write completed (or was skipped). Without peers done is called
// right away.
func (s *Pub) SendWithCallback(done func(), frames ...[]byte) error {
	e, err := encode(frames)
	if err != nil {
		return fmt.Errorf("pub: %w", err)
	}
	return s.Post(func() { s.broadcast(e.buf, done) })
}

func (s *Pub) broadcast(buf []byte, done func()) {
	peers := s.Peers()
	remaining := len(peers)
	if remaining == 0 {
		if done != nil {
			done()
		}
		return
	}

	finish := func(error) {
		remaining--
		if remaining == 0 && done != nil {
			done()
		}
	}
	for _, p := range peers {
		if !p.Write(buf, finish) {
			finish(nil)
		}
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Pub) HandleMessage(p *base.Peer, msg message.Message) {
	s.EmitMessage(p, msg)
}

func (s *Pub) PeerAvailable(*base.Peer) {}
