package socket

import (
	"fmt"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/frame"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/ValentinKolb/dMQ/lib/socket/plugin"
)

// encoded is a message together with its wire form
type encoded struct {
	msg message.Message
	buf []byte
}

func encode(frames [][]byte) (encoded, error) {
	msg := message.New(frames...)
	buf, err := frame.Encode(msg)
	if err != nil {
		return encoded{}, err
	}
	return encoded{msg: msg, buf: buf}, nil
}

// newEncodedQueue creates the queue buffering messages of a socket while no peer is writable
func newEncodedQueue(s *base.Socket, resend func(encoded)) *plugin.Queue[encoded] {
	return plugin.NewQueue(plugin.QueueOptions[encoded]{
		HWM:    s.Config().HWM,
		Resend: resend,
		OnDrop: func(e encoded) { s.EmitDrop(e.msg) },
		OnFlush: func(items []encoded) {
			msgs := make([]message.Message, len(items))
			for i, e := range items {
				msgs[i] = e.msg
			}
			s.EmitFlush(msgs)
		},
	})
}

// --------------------------------------------------------------------------
// Push
// --------------------------------------------------------------------------

// Push distributes messages round-robin over its peers
type Push struct {
	*base.Socket
	rr    plugin.RoundRobin[*base.Peer]
	queue *plugin.Queue[encoded]
}

// NewPush creates a push socket
func NewPush(config common.SocketConfig, events base.Events) (*Push, error) {
	s := &Push{}
	sock, err := base.NewSocket("push", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	s.queue = newEncodedQueue(sock, s.dispatch)
	return s, nil
}

// Send queues the message for the next peer in rotation. If that peer is
// missing or not writable the message is buffered until a peer connects.
func (s *Push) Send(frames ...[]byte) error {
	e, err := encode(frames)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return s.Post(func() { s.dispatch(e) })
}

func (s *Push) dispatch(e encoded) {
	s.rr.Dispatch(s.Peers(),
		func(p *base.Peer) { p.Write(e.buf, nil) },
		func() { s.queue.Enqueue(e) },
	)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Push) HandleMessage(p *base.Peer, msg message.Message) {
	s.EmitMessage(p, msg)
}

func (s *Push) PeerAvailable(*base.Peer) {
	s.queue.Flush()
}
