package unix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
)

const probeTimeout = time.Second

// connector implements transport.IConnector for Unix domain sockets
type connector struct {
	config common.TransportConfig
}

// NewConnector creates a Unix socket connector
func NewConnector(config common.TransportConfig) transport.IConnector {
	return &connector{config: config}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConnector)
// --------------------------------------------------------------------------

func (c *connector) GetName() string {
	return transport.SchemeUnix
}

func (c *connector) Dial(ctx context.Context, path string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.config.DialTimeout}
	return d.DialContext(ctx, "unix", path)
}

func (c *connector) Listen(path string) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err == nil {
		return listener, nil
	}
	if !transport.IsAddrInUse(err) {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	// somebody left a socket file behind, check if it is still served
	probe, perr := net.DialTimeout("unix", path, probeTimeout)
	if perr == nil {
		_ = probe.Close()
		return nil, fmt.Errorf("%w: %s", common.ErrAddressInUse, path)
	}
	if !errors.Is(perr, syscall.ECONNREFUSED) && !errors.Is(perr, syscall.ENOENT) {
		return nil, fmt.Errorf("failed to probe %s: %w", path, perr)
	}

	transport.Logger.Debugf("removing stale socket file %s", path)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}

	listener, err = net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	return listener, nil
}

func (c *connector) UpgradeConnection(conn net.Conn) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}

	if c.config.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(c.config.WriteBufferSize); err != nil {
			return err
		}
	}
	if c.config.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(c.config.ReadBufferSize); err != nil {
			return err
		}
	}
	return nil
}
