package socket

import (
	"fmt"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
)

// Pull receives the messages of push sockets
type Pull struct {
	*base.Socket
}

// NewPull creates a pull socket, messages are delivered via events.OnMessage
func NewPull(config common.SocketConfig, events base.Events) (*Pull, error) {
	s := &Pull{}
	sock, err := base.NewSocket("pull", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	return s, nil
}

// Send always fails, pull sockets only receive
func (s *Pull) Send(...[]byte) error {
	return fmt.Errorf("%w: pull sockets cannot send messages", common.ErrCapability)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Pull) HandleMessage(p *base.Peer, msg message.Message) {
	s.EmitMessage(p, msg)
}

func (s *Pull) PeerAvailable(*base.Peer) {}
