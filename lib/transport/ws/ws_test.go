package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dMQ/lib/common"
)

func TestWebsocketStream(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())

	l, err := c.Listen("ws://127.0.0.1:0/dmq")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer l.Close()

	url := l.Addr().String()
	if !strings.HasPrefix(url, "ws://127.0.0.1:") || !strings.HasSuffix(url, "/dmq") {
		t.Fatalf("Unexpected listener address %s", url)
	}

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := c.Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := c.UpgradeConnection(client); err != nil {
		t.Fatalf("UpgradeConnection failed: %v", err)
	}

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(time.Second):
		t.Fatalf("Timeout waiting for accept")
	}
	defer server.Close()

	// two writes arrive as one continuous stream
	_, _ = client.Write([]byte("hel"))
	_, _ = client.Write([]byte("lo"))
	buf := make([]byte, 5)
	if _, err := io.ReadFull(server, buf); err != nil || string(buf) != "hello" {
		t.Fatalf("Expected hello, got %q (%v)", buf, err)
	}

	// an orderly close is seen as EOF
	client.Close()
	_ = server.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := server.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF after close, got %v", err)
	}
}

func TestAcceptAfterClose(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	l, err := c.Listen("ws://127.0.0.1:0/")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	l.Close()

	if _, err := l.Accept(); !errors.Is(err, net.ErrClosed) {
		t.Errorf("Expected net.ErrClosed, got %v", err)
	}
}

func TestListenRejectsTLS(t *testing.T) {
	c := NewConnector(common.DefaultTransportConfig())
	if _, err := c.Listen("wss://127.0.0.1:0/"); err == nil {
		t.Errorf("Expected wss listen to fail")
	}
}
