package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
)

// connector implements transport.IConnector for TCP
type connector struct {
	config common.TransportConfig
}

// NewConnector creates a TCP connector
func NewConnector(config common.TransportConfig) transport.IConnector {
	return &connector{config: config}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConnector)
// --------------------------------------------------------------------------

func (c *connector) GetName() string {
	return transport.SchemeTCP
}

func (c *connector) Dial(ctx context.Context, address string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.config.DialTimeout}
	return d.DialContext(ctx, "tcp", address)
}

func (c *connector) Listen(address string) (net.Listener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return listener, nil
}

func (c *connector) UpgradeConnection(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // nothing to tune
	}

	if err := tcpConn.SetNoDelay(c.config.TCPNoDelay); err != nil {
		return err
	}

	if c.config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(c.config.WriteBufferSize); err != nil {
			return err
		}
	}

	if c.config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(c.config.ReadBufferSize); err != nil {
			return err
		}
	}

	if c.config.TCPKeepAlive > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(c.config.TCPKeepAlive); err != nil {
			return err
		}
	}

	if c.config.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(c.config.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
