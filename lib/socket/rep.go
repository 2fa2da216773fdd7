package socket

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/frame"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
)

var repLogger = common.GetLogger("sock/rep")

// RequestHandler handles one request. It runs on the control loop, long
// running work should answer through reply from another goroutine.
type RequestHandler func(req message.Message, reply *Reply)

// Rep answers the requests of req sockets
type Rep struct {
	*base.Socket
	handler RequestHandler
}

// NewRep creates a rep socket passing every request to handler
func NewRep(config common.SocketConfig, events base.Events, handler RequestHandler) (*Rep, error) {
	if handler == nil {
		return nil, errors.New("rep socket needs a request handler")
	}
	s := &Rep{handler: handler}
	sock, err := base.NewSocket("rep", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	return s, nil
}

// Send always fails, rep sockets answer through Reply
func (s *Rep) Send(...[]byte) error {
	return fmt.Errorf("%w: rep sockets can only reply", common.ErrCapability)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Rep) HandleMessage(p *base.Peer, msg message.Message) {
	if msg.Len() == 0 {
		repLogger.Debugf("request without id from %s", p)
		return
	}
	id := msg.Pop()
	s.EmitMessage(p, msg)
	s.handler(msg, &Reply{rep: s, peerID: p.ID(), id: id})
}

func (s *Rep) PeerAvailable(*base.Peer) {}

// --------------------------------------------------------------------------
// Reply
// --------------------------------------------------------------------------

// Reply answers a single request on the connection it arrived on.
// It may be used from any goroutine.
type Reply struct {
	rep    *Rep
	peerID uint64
	id     []byte
}

// Send answers the request with an error slot (nil for success) and frames
func (r *Reply) Send(err error, frames ...[]byte) error {
	return r.SendWithAck(nil, err, frames...)
}

// SendWithAck works like Send. onAck runs with true once the reply was
// written, or with false if the requesting peer is gone. onAck runs on the
// control loop, unless the socket is already closed: then it is called
// before SendWithAck returns.
// The returned error only reports invalid messages.
func (r *Reply) SendWithAck(onAck func(ok bool), err error, frames ...[]byte) error {
	out := make(message.Message, 0, len(frames)+2)
	out = append(out, message.EncodeError(err))
	out = append(out, frames...)
	out = append(out, r.id)

	buf, encErr := frame.Encode(out)
	if encErr != nil {
		return fmt.Errorf("rep: %w", encErr)
	}

	ack := func(ok bool) {
		if onAck != nil {
			onAck(ok)
		}
	}

	postErr := r.rep.Post(func() {
		p, found := r.rep.Peer(r.peerID)
		if found && p.Write(buf, func(werr error) { ack(werr == nil) }) {
			return
		}
		repLogger.Debugf("peer went away")
		ack(false)
	})
	if postErr != nil {
		repLogger.Debugf("socket closed, reply dropped")
		ack(false)
	}
	return nil
}
