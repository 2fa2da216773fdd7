package socket

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/frame"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/ValentinKolb/dMQ/lib/socket/plugin"
)

var reqLogger = common.GetLogger("sock/req")

// ReplyHandler receives the answer to a request. err carries the error slot
// set by the replying peer (see message.DecodeError), reply the remaining frames.
type ReplyHandler func(err error, reply message.Message)

type request struct {
	msg     message.Message
	onReply ReplyHandler
}

// Req sends requests round-robin and routes every reply to its handler
type Req struct {
	*base.Socket
	rr    plugin.RoundRobin[*base.Peer]
	queue *plugin.Queue[*request]

	prefix  string // identity + ":"
	nextID  uint64
	pending map[uint64]ReplyHandler
	count   atomic.Int64
}

// NewReq creates a req socket
func NewReq(config common.SocketConfig, events base.Events) (*Req, error) {
	s := &Req{
		prefix:  config.Identity + ":",
		pending: make(map[uint64]ReplyHandler),
	}
	sock, err := base.NewSocket("req", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	s.queue = plugin.NewQueue(plugin.QueueOptions[*request]{
		HWM:    config.HWM,
		Resend: s.dispatch,
		OnDrop: func(r *request) { sock.EmitDrop(r.msg) },
		OnFlush: func(items []*request) {
			msgs := make([]message.Message, len(items))
			for i, r := range items {
				msgs[i] = r.msg
			}
			sock.EmitFlush(msgs)
		},
	})
	return s, nil
}

// Send issues a request without waiting for its reply
func (s *Req) Send(frames ...[]byte) error {
	return s.Request(nil, frames...)
}

// Request sends frames to the next peer in rotation and calls onReply on the
// control loop when the matching reply arrives. If no peer is writable the
// request is buffered until a peer connects. Requests are never expired, a
// request whose peer vanished stays pending (see Pending).
func (s *Req) Request(onReply ReplyHandler, frames ...[]byte) error {
	if len(frames) >= frame.MaxFrames {
		return fmt.Errorf("req: %w: %d frames leave no room for the request id", frame.ErrTooManyFrames, len(frames))
	}
	if err := frame.Check(frames); err != nil {
		return fmt.Errorf("req: %w", err)
	}

	r := &request{msg: message.New(frames...), onReply: onReply}
	return s.Post(func() { s.dispatch(r) })
}

// Pending returns the number of requests waiting for a reply. Safe from any goroutine.
func (s *Req) Pending() int {
	return int(s.count.Load())
}

func (s *Req) dispatch(r *request) {
	s.rr.Dispatch(s.Peers(),
		func(p *base.Peer) { s.write(p, r) },
		func() {
			reqLogger.Debugf("no writable peer, queueing request")
			s.queue.Enqueue(r)
		},
	)
}

func (s *Req) write(p *base.Peer, r *request) {
	id := s.nextID
	s.nextID++

	token, _ := message.EncodeArg(s.prefix + strconv.FormatUint(id, 10))
	frames := append(r.msg[:len(r.msg):len(r.msg)], token)
	buf, err := frame.Encode(frames)
	if err != nil {
		reqLogger.Errorf("failed to encode request: %v", err)
		return
	}

	onReply := r.onReply
	if onReply == nil {
		onReply = func(error, message.Message) {}
	}
	s.pending[id] = onReply
	s.count.Add(1)
	p.Write(buf, nil)
}

// parseID extracts the counter from a correlation id frame of this socket
func (s *Req) parseID(f []byte) (uint64, bool) {
	token := string(bytes.TrimPrefix(f, []byte("s:")))
	rest, ok := strings.CutPrefix(token, s.prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	return id, err == nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Req) HandleMessage(_ *base.Peer, msg message.Message) {
	last := msg.Pop()
	id, ok := s.parseID(last)
	if !ok {
		reqLogger.Debugf("missing callback %q", last)
		return
	}

	onReply, ok := s.pending[id]
	if !ok {
		reqLogger.Debugf("missing callback %q", last)
		return
	}
	delete(s.pending, id)
	s.count.Add(-1)

	body, err := message.SplitReply(msg)
	onReply(err, body)
}

func (s *Req) PeerAvailable(*base.Peer) {
	s.queue.Flush()
}
