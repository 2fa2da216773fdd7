package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
)

func TestDialAndListen(t *testing.T) {
	cfg := common.DefaultTransportConfig()
	cfg.TCPLingerSec = 0
	c := NewConnector(cfg)

	if c.GetName() != "tcp" {
		t.Errorf("Expected name tcp, got %s", c.GetName())
	}

	l, err := c.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			_ = c.UpgradeConnection(conn)
			accepted <- conn
		}
	}()

	conn, err := c.Dial(context.Background(), l.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	if err := c.UpgradeConnection(conn); err != nil {
		t.Fatalf("UpgradeConnection failed: %v", err)
	}

	var server net.Conn
	select {
	case server = <-accepted:
		defer server.Close()
	case <-time.After(time.Second):
		t.Fatalf("Timeout waiting for accept")
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(server, buf); err != nil || string(buf) != "ping" {
		t.Errorf("Expected ping, got %q (%v)", buf, err)
	}
}

func TestDialRefusedIsTransient(t *testing.T) {
	// grab a free port and release it again
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	_, err = NewConnector(common.DefaultTransportConfig()).Dial(context.Background(), addr)
	if err == nil {
		t.Fatalf("Expected dial to fail")
	}
	if !errors.Is(err, syscall.ECONNREFUSED) || !transport.IsTransient(err) {
		t.Errorf("Expected transient ECONNREFUSED, got %v", err)
	}
}

func TestListenAddressInUse(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	l, err := c.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	if _, err := c.Listen(l.Addr().String()); !transport.IsAddrInUse(err) {
		t.Errorf("Expected EADDRINUSE, got %v", err)
	}
}
