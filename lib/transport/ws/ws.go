package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
	"github.com/ValentinKolb/dMQ/lib/transport/tcp"
	"github.com/gorilla/websocket"
)

// connector implements transport.IConnector for websockets
type connector struct {
	config common.TransportConfig
	tcp    transport.IConnector
}

// NewConnector creates a websocket connector
func NewConnector(config common.TransportConfig) transport.IConnector {
	return &connector{config: config, tcp: tcp.NewConnector(config)}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConnector)
// --------------------------------------------------------------------------

func (c *connector) GetName() string {
	return transport.SchemeWS
}

func (c *connector) Dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.DialTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	ws, _, err := dialer.DialContext(ctx, address, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws), nil
}

func (c *connector) Listen(address string) (net.Listener, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket address %s: %w", address, err)
	}
	if u.Scheme != transport.SchemeWS {
		return nil, fmt.Errorf("cannot listen on %s: only ws:// is supported", address)
	}

	inner, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	l := &listener{
		inner:  inner,
		path:   u.Path,
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  c.config.ReadBufferSize,
			WriteBufferSize: c.config.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, l.handle)
	l.server = &http.Server{Handler: mux}

	go func() {
		if err := l.server.Serve(inner); err != nil && !errors.Is(err, http.ErrServerClosed) {
			transport.Logger.Errorf("websocket server on %s stopped: %v", address, err)
		}
	}()

	return l, nil
}

func (c *connector) UpgradeConnection(nc net.Conn) error {
	wc, ok := nc.(*conn)
	if !ok {
		return nil
	}
	return c.tcp.UpgradeConnection(wc.ws.UnderlyingConn())
}

// --------------------------------------------------------------------------
// Listener
// --------------------------------------------------------------------------

// listener hands out upgraded websocket connections as net.Conn
type listener struct {
	inner    net.Listener
	path     string
	server   *http.Server
	upgrader websocket.Upgrader

	conns     chan net.Conn
	closed    chan struct{}
	closeOnce sync.Once
}

func (l *listener) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		transport.Logger.Debugf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	select {
	case l.conns <- newConn(ws):
	case <-l.closed:
		_ = ws.Close()
	}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, &net.OpError{Op: "accept", Net: transport.SchemeWS, Addr: l.Addr(), Err: net.ErrClosed}
	}
}

func (l *listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.server.Close()
	})
	return err
}

func (l *listener) Addr() net.Addr {
	return addr{host: l.inner.Addr().String(), path: l.path}
}

// addr renders the listener address as websocket URL
type addr struct {
	host string
	path string
}

func (a addr) Network() string { return transport.SchemeWS }
func (a addr) String() string  { return "ws://" + a.host + a.path }
