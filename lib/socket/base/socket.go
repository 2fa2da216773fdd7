package base

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/transport"
	"github.com/ValentinKolb/dMQ/lib/util"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/someonegg/gox/syncx"
)

var Logger = common.GetLogger("sock")

// Role is fixed by the first Bind or Connect call of a socket
type Role int32

const (
	RoleNone Role = iota
	RoleClient
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "none"
	}
}

const maxAcceptDelay = time.Second

// Socket is the connection manager shared by all socket types
type Socket struct {
	kind   string
	config common.SocketConfig
	events Events
	proto  Protocol

	role    atomic.Int32
	closed  atomic.Bool
	address atomic.Value // string
	inbox   *util.Mailbox[func()]
	done    syncx.DoneChan
	peerIdx *xsync.MapOf[uint64, *Peer]
	metrics *socketMetrics

	ctx    context.Context // cancelled on close, aborts pending dials
	cancel context.CancelFunc
	io     sync.WaitGroup // I/O goroutines, only added to on the control loop

	// owned by the control loop
	peers    []*Peer // copy on write, iteration over a snapshot stays valid
	links    map[*link]struct{}
	listener net.Listener
	binding  bool
	closing  bool
	backoff  *Backoff
	nextID   uint64
}

// NewSocket creates a socket and starts its control loop.
// kind names the socket type in logs and metrics.
func NewSocket(kind string, config common.SocketConfig, events Events, proto Protocol) (*Socket, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s socket config: %w", kind, err)
	}
	if proto == nil {
		return nil, fmt.Errorf("%s socket needs a protocol", kind)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Socket{
		kind:    kind,
		config:  config,
		events:  events,
		proto:   proto,
		inbox:   util.NewMailbox[func()](),
		done:    syncx.NewDoneChan(),
		peerIdx: xsync.NewMapOf[uint64, *Peer](),
		metrics: newSocketMetrics(kind),
		ctx:     ctx,
		cancel:  cancel,
		links:   make(map[*link]struct{}),
		backoff: NewBackoff(config.RetryTimeout, config.RetryMaxTimeout),
	}
	s.address.Store("")

	go s.run()
	return s, nil
}

func (s *Socket) run() {
	for fn := range s.inbox.C() {
		fn()
	}
}

// post queues fn on the control loop, it fails only after the close sequence finished
func (s *Socket) post(fn func()) bool {
	return s.inbox.Put(fn)
}

// Post runs fn on the control loop. It fails with common.ErrClosed once Close was called.
func (s *Socket) Post(fn func()) error {
	if s.closed.Load() || !s.post(fn) {
		return common.ErrClosed
	}
	return nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Kind returns the socket type name
func (s *Socket) Kind() string {
	return s.kind
}

// Config returns the socket configuration
func (s *Socket) Config() common.SocketConfig {
	return s.config
}

// Role returns the role taken by the socket
func (s *Socket) Role() Role {
	return Role(s.role.Load())
}

// Address returns the bound address (e.g. "tcp://127.0.0.1:3000") or "" while not listening
func (s *Socket) Address() string {
	return s.address.Load().(string)
}

// PeerCount returns the number of established connections. Safe from any goroutine.
func (s *Socket) PeerCount() int {
	return s.peerIdx.Size()
}

// Peer looks up an established connection by its id. Safe from any goroutine,
// a peer found off the control loop may be gone by the time it is used.
func (s *Socket) Peer(id uint64) (*Peer, bool) {
	return s.peerIdx.Load(id)
}

// Peers returns the established connections in the order they were added.
// Only valid on the control loop, the returned slice must not be modified.
func (s *Socket) Peers() []*Peer {
	return s.peers
}

// Closed reports whether Close was called
func (s *Socket) Closed() bool {
	return s.closed.Load()
}

// Done is closed once the socket finished closing
func (s *Socket) Done() syncx.DoneChanR {
	return s.done.R()
}

func (s *Socket) takeRole(r Role) error {
	if s.role.CompareAndSwap(int32(RoleNone), int32(r)) || Role(s.role.Load()) == r {
		return nil
	}
	if r == RoleClient {
		return fmt.Errorf("%w: cannot connect() after bind()", common.ErrRole)
	}
	return fmt.Errorf("%w: cannot bind() after connect()", common.ErrRole)
}

// --------------------------------------------------------------------------
// Client role
// --------------------------------------------------------------------------

// Connect dials address and keeps the connection alive: a dropped connection
// is re-established with exponential backoff until the socket is closed.
// onConnect, if set, runs on the control loop after the first successful connect.
// Errors are only returned for invalid addresses, role conflicts and closed sockets.
func (s *Socket) Connect(address string, onConnect func()) error {
	if s.closed.Load() {
		return common.ErrClosed
	}
	ep, err := transport.ParseAddress(address)
	if err != nil {
		return err
	}
	c, err := connectorFor(ep.Scheme, s.config.Transport)
	if err != nil {
		return err
	}
	if err := s.takeRole(RoleClient); err != nil {
		return err
	}

	l := &link{endpoint: ep, connector: c}
	return s.Post(func() {
		s.links[l] = struct{}{}
		s.dial(l, onConnect)
	})
}

func (s *Socket) dial(l *link, onConnect func()) {
	if s.closing {
		return
	}
	Logger.Debugf("%s: connecting to %s", s.kind, l.endpoint)

	s.io.Add(1)
	go func() {
		defer s.io.Done()
		conn, err := l.connector.Dial(s.ctx, l.endpoint.Address)
		if err == nil {
			if uerr := l.connector.UpgradeConnection(conn); uerr != nil {
				Logger.Warningf("%s: failed to tune connection to %s: %v", s.kind, l.endpoint, uerr)
			}
		}
		s.post(func() { s.dialed(l, conn, err, onConnect) })
	}()
}

func (s *Socket) dialed(l *link, conn net.Conn, err error, onConnect func()) {
	if s.closing {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		s.handleError(err)
		s.scheduleReconnect(l)
		return
	}

	p := s.addPeer(conn, l)
	s.backoff.Reset()
	Logger.Debugf("%s: connected to %s", s.kind, l.endpoint)

	s.proto.PeerAvailable(p)
	if s.events.OnConnect != nil {
		s.events.OnConnect(p)
	}
	if onConnect != nil {
		onConnect()
	}
}

func (s *Socket) scheduleReconnect(l *link) {
	if s.closing {
		return
	}
	if s.backoff.Disabled() {
		Logger.Debugf("%s: connection to %s closed, reconnect disabled", s.kind, l.endpoint)
		delete(s.links, l)
		s.emitClose()
		return
	}

	delay := s.backoff.Current()
	Logger.Debugf("%s: reconnecting to %s in %s", s.kind, l.endpoint, delay)
	l.timer = time.AfterFunc(delay, func() {
		s.post(func() { s.reconnect(l) })
	})
}

func (s *Socket) reconnect(l *link) {
	l.timer = nil
	if s.closing {
		return
	}
	s.metrics.reconnects.Inc()
	if s.events.OnReconnectAttempt != nil {
		s.events.OnReconnectAttempt()
	}
	s.dial(l, nil)
	s.backoff.Grow()
}

// --------------------------------------------------------------------------
// Server role
// --------------------------------------------------------------------------

// Bind listens on address. onBind, if set, runs on the control loop with the
// outcome of the listen call. Without onBind a listen failure is reported via
// Events.OnError. Errors are only returned for invalid addresses, role
// conflicts and closed sockets.
func (s *Socket) Bind(address string, onBind func(err error)) error {
	if s.closed.Load() {
		return common.ErrClosed
	}
	ep, err := transport.ParseAddress(address)
	if err != nil {
		return err
	}
	c, err := connectorFor(ep.Scheme, s.config.Transport)
	if err != nil {
		return err
	}
	if err := s.takeRole(RoleServer); err != nil {
		return err
	}

	return s.Post(func() { s.listen(ep, c, onBind) })
}

func (s *Socket) listen(ep transport.Endpoint, c transport.IServerConnector, onBind func(err error)) {
	if s.closing {
		return
	}
	if s.listener != nil || s.binding {
		s.bindFailed(ep, fmt.Errorf("%s socket is already bound", s.kind), onBind)
		return
	}

	s.binding = true
	s.io.Add(1)
	go func() {
		defer s.io.Done()
		listener, err := c.Listen(ep.Address)
		s.post(func() { s.listening(ep, c, listener, err, onBind) })
	}()
}

func (s *Socket) listening(ep transport.Endpoint, c transport.IServerConnector, listener net.Listener, err error, onBind func(err error)) {
	s.binding = false
	if s.closing {
		if listener != nil {
			_ = listener.Close()
		}
		return
	}
	if err != nil {
		s.bindFailed(ep, err, onBind)
		return
	}

	s.listener = listener
	bound := transport.Endpoint{Scheme: ep.Scheme, Address: listener.Addr().String()}
	s.address.Store(bound.String())
	Logger.Debugf("%s: listening on %s", s.kind, bound)

	s.io.Add(1)
	go s.acceptLoop(listener, c)

	if s.events.OnBind != nil {
		s.events.OnBind()
	}
	if onBind != nil {
		onBind(nil)
	}
}

func (s *Socket) bindFailed(ep transport.Endpoint, err error, onBind func(err error)) {
	Logger.Errorf("%s: failed to bind %s: %v", s.kind, ep, err)
	if onBind != nil {
		onBind(err)
		return
	}
	if s.events.OnError != nil {
		s.events.OnError(err)
	}
}

func (s *Socket) acceptLoop(listener net.Listener, c transport.IServerConnector) {
	defer s.io.Done()

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if transport.IsClosed(err) {
				return
			}
			s.post(func() { s.handleError(err) })

			// back off on accept failures (e.g. file descriptor exhaustion)
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			time.Sleep(delay)
			continue
		}
		delay = 0

		if err := c.UpgradeConnection(conn); err != nil {
			Logger.Warningf("%s: failed to tune accepted connection: %v", s.kind, err)
		}
		s.post(func() { s.accepted(conn) })
	}
}

func (s *Socket) accepted(conn net.Conn) {
	if s.closing {
		_ = conn.Close()
		return
	}

	p := s.addPeer(conn, nil)
	Logger.Debugf("%s: accepted connection from %s", s.kind, conn.RemoteAddr())

	s.proto.PeerAvailable(p)
	if s.events.OnConnection != nil {
		s.events.OnConnection(p)
	}
}

// --------------------------------------------------------------------------
// Peer bookkeeping
// --------------------------------------------------------------------------

func (s *Socket) addPeer(conn net.Conn, l *link) *Peer {
	s.nextID++
	p := newPeer(s, s.nextID, conn, l)

	// full slice expression forces a copy, snapshots held by callers stay intact
	s.peers = append(s.peers[:len(s.peers):len(s.peers)], p)
	s.peerIdx.Store(p.id, p)
	s.metrics.connects.Inc()

	s.io.Add(2)
	go p.readLoop()
	go p.writeLoop()
	return p
}

func (s *Socket) removePeer(p *Peer) {
	idx := slices.Index(s.peers, p)
	if idx < 0 {
		return
	}
	peers := make([]*Peer, 0, len(s.peers)-1)
	peers = append(peers, s.peers[:idx]...)
	s.peers = append(peers, s.peers[idx+1:]...)
	s.peerIdx.Delete(p.id)
	s.metrics.disconnects.Inc()
}

func (s *Socket) deliver(p *Peer, msg message.Message) {
	if s.closing {
		return
	}
	s.metrics.received.Inc()
	s.proto.HandleMessage(p, msg)
}

func (s *Socket) peerClosed(p *Peer, err error) {
	if !p.close() {
		return
	}
	s.removePeer(p)
	if s.closing {
		return
	}

	if err != nil && !transport.IsClosed(err) {
		s.handleError(err)
	}

	if p.link == nil {
		Logger.Debugf("%s: %s disconnected", s.kind, p)
		if s.events.OnDisconnect != nil {
			s.events.OnDisconnect(p)
		}
		return
	}

	Logger.Debugf("%s: connection to %s closed", s.kind, p.link.endpoint)
	s.scheduleReconnect(p.link)
}

// handleError classifies a connection error: every error is reported via
// OnSocketError, routine ones additionally via OnIgnoredError, all others via OnError
func (s *Socket) handleError(err error) {
	s.metrics.errors.Inc()
	if s.events.OnSocketError != nil {
		s.events.OnSocketError(err)
	}

	if transport.IsTransient(err) {
		Logger.Debugf("%s: ignored %s", s.kind, transport.ErrorCode(err))
		if s.events.OnIgnoredError != nil {
			s.events.OnIgnoredError(err)
		}
		return
	}

	Logger.Warningf("%s: connection error: %v", s.kind, err)
	if s.events.OnError != nil {
		s.events.OnError(err)
	}
}

// --------------------------------------------------------------------------
// Close
// --------------------------------------------------------------------------

// Close destroys all connections without draining them, stops listening and
// cancels pending reconnects. onClose, if set, runs once the socket is fully
// closed. Calling Close again only waits for the first close to finish.
func (s *Socket) Close(onClose func()) {
	if !s.closed.CompareAndSwap(false, true) {
		if onClose != nil {
			go func() {
				<-s.done
				onClose()
			}()
		}
		return
	}
	s.post(func() { s.shutdown(onClose) })
}

func (s *Socket) shutdown(onClose func()) {
	s.closing = true
	s.cancel()

	for l := range s.links {
		if l.timer != nil {
			l.timer.Stop()
			l.timer = nil
		}
	}
	s.links = make(map[*link]struct{})

	Logger.Debugf("%s: closing %d connections", s.kind, len(s.peers))
	for _, p := range s.peers {
		p.close()
		s.peerIdx.Delete(p.id)
		s.metrics.disconnects.Inc()
	}
	s.peers = nil

	if s.listener != nil {
		Logger.Debugf("%s: closing listener %s", s.kind, s.Address())
		_ = s.listener.Close()
		s.listener = nil
	}

	go func() {
		// every I/O goroutine posts its last closure before it exits
		s.io.Wait()
		s.post(func() {
			Logger.Debugf("%s: closed", s.kind)
			s.address.Store("")
			s.emitClose()
			if onClose != nil {
				onClose()
			}
			s.done.SetDone()
			s.inbox.Close()
		})
	}()
}
