package unix

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
)

// socketPath returns a short path, unix socket paths are limited to ~100 bytes
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dmq")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestListenAndDial(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	path := socketPath(t)

	l, err := c.Listen(path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err == nil {
			_ = c.UpgradeConnection(conn)
			_, _ = conn.Write([]byte("ok"))
			conn.Close()
		}
	}()

	conn, err := c.Dial(context.Background(), path)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 2)
	if _, err := conn.Read(buf); err != nil || string(buf) != "ok" {
		t.Errorf("Expected ok, got %q (%v)", buf, err)
	}
}

func TestListenLiveSocket(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	path := socketPath(t)

	l, err := c.Listen(path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	if _, err := c.Listen(path); !errors.Is(err, common.ErrAddressInUse) {
		t.Errorf("Expected ErrAddressInUse, got %v", err)
	}
}

func TestListenStaleSocket(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	path := socketPath(t)

	// leave a socket file without a listener behind
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	l.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected stale socket file: %v", err)
	}

	l, err = c.Listen(path)
	if err != nil {
		t.Fatalf("Expected stale socket to be replaced, got %v", err)
	}
	defer l.Close()

	conn, err := c.Dial(context.Background(), path)
	if err != nil {
		t.Fatalf("Dial after recovery failed: %v", err)
	}
	conn.Close()
}

func TestDialMissingSocketIsTransient(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	_, err := c.Dial(context.Background(), socketPath(t))
	if err == nil || !transport.IsTransient(err) {
		t.Errorf("Expected transient ENOENT, got %v", err)
	}
}
