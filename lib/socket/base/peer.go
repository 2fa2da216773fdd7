package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ValentinKolb/dMQ/lib/frame"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/transport"
)

const (
	readBufferSize = 64 * 1024
	maxWriteBatch  = 64
)

// outgoing is an encoded message waiting for the writer goroutine
type outgoing struct {
	buf  []byte
	done func(err error)
}

// link is an outgoing connection slot that survives reconnects
type link struct {
	endpoint  transport.Endpoint
	connector transport.IClientConnector
	timer     *time.Timer // pending reconnect
}

// Peer is one established connection of a socket
type Peer struct {
	id     uint64
	socket *Socket
	conn   net.Conn
	link   *link // nil for accepted connections

	out  chan outgoing
	stop chan struct{}

	// owned by the control loop
	gone     bool
	overflow []outgoing // writes waiting for room in out, in order
}

func newPeer(s *Socket, id uint64, conn net.Conn, l *link) *Peer {
	return &Peer{
		id:     id,
		socket: s,
		conn:   conn,
		link:   l,
		out:    make(chan outgoing, s.config.Transport.WriteQueueSize),
		stop:   make(chan struct{}),
	}
}

// ID returns the socket local id of the peer
func (p *Peer) ID() uint64 {
	return p.id
}

// Accepted reports whether the peer connected to a bound socket
func (p *Peer) Accepted() bool {
	return p.link == nil
}

func (p *Peer) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}

func (p *Peer) LocalAddr() net.Addr {
	return p.conn.LocalAddr()
}

func (p *Peer) String() string {
	return fmt.Sprintf("peer-%d(%s)", p.id, p.conn.RemoteAddr())
}

// Writable reports whether the peer is still open. A slow peer stays writable,
// writes beyond the write queue wait in memory until the writer catches up.
// Only valid on the control loop.
func (p *Peer) Writable() bool {
	return !p.gone
}

// Write queues an encoded message. It returns false if the peer is gone.
// done, if set, runs on the control loop once the write completed or failed.
// Only valid on the control loop.
func (p *Peer) Write(buf []byte, done func(err error)) bool {
	if p.gone {
		return false
	}
	o := outgoing{buf: buf, done: done}
	if len(p.overflow) == 0 && len(p.out) < cap(p.out) {
		p.out <- o
	} else {
		p.overflow = append(p.overflow, o)
	}
	p.socket.metrics.sent.Inc()
	return true
}

// refill moves waiting writes into the write queue. Posted by the writer after every batch.
func (p *Peer) refill() {
	if p.gone {
		return
	}
	n := 0
	for n < len(p.overflow) && len(p.out) < cap(p.out) {
		p.out <- p.overflow[n]
		p.overflow[n] = outgoing{}
		n++
	}
	p.overflow = p.overflow[n:]
	if len(p.overflow) == 0 {
		p.overflow = nil
	}
}

// Send encodes and queues a message, see Write
func (p *Peer) Send(msg message.Message, done func(err error)) (bool, error) {
	buf, err := frame.Encode(msg)
	if err != nil {
		return false, err
	}
	return p.Write(buf, done), nil
}

// close tears the connection down without draining it. Messages still queued
// complete with net.ErrClosed. Runs on the control loop.
func (p *Peer) close() bool {
	if p.gone {
		return false
	}
	p.gone = true
	close(p.stop)
	_ = p.conn.Close()

	overflow := p.overflow
	p.overflow = nil
	defer func() {
		for _, o := range overflow {
			if o.done != nil {
				o.done(net.ErrClosed)
			}
		}
	}()

	for {
		select {
		case o := <-p.out:
			if o.done != nil {
				o.done(net.ErrClosed)
			}
		default:
			return true
		}
	}
}

// --------------------------------------------------------------------------
// I/O goroutines
// --------------------------------------------------------------------------

func (p *Peer) readLoop() {
	s := p.socket
	defer s.io.Done()

	dec := frame.NewDecoder(s.config.Transport.MaxFrameSize)
	buf := make([]byte, readBufferSize)

	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			_, _ = dec.Write(buf[:n])
			for {
				frames, ok, derr := dec.Next()
				if derr != nil {
					Logger.Warningf("%s: dropping %s: %v", s.kind, p, derr)
					s.post(func() { s.peerClosed(p, derr) })
					return
				}
				if !ok {
					break
				}
				msg := message.Message(frames)
				s.post(func() { s.deliver(p, msg) })
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			s.post(func() { s.peerClosed(p, err) })
			return
		}
	}
}

func (p *Peer) writeLoop() {
	s := p.socket
	defer s.io.Done()

	batch := make([]outgoing, 0, maxWriteBatch)
	for {
		select {
		case <-p.stop:
			return
		case o := <-p.out:
			batch = append(batch[:0], o)
		collect:
			for len(batch) < maxWriteBatch {
				select {
				case o := <-p.out:
					batch = append(batch, o)
				default:
					break collect
				}
			}

			bufs := make(net.Buffers, len(batch))
			for i := range batch {
				bufs[i] = batch[i].buf
			}
			_, err := bufs.WriteTo(p.conn)

			for _, o := range batch {
				if done := o.done; done != nil {
					s.post(func() { done(err) })
				}
			}

			if err != nil {
				s.post(func() { s.peerClosed(p, err) })
				return
			}
			s.post(p.refill)
		}
	}
}
