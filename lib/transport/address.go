package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	SchemeTCP  = "tcp"
	SchemeUnix = "unix"
	SchemeWS   = "ws"
	SchemeWSS  = "wss"

	// DefaultHost is used when an address names only a port
	DefaultHost = "0.0.0.0"
)

// Endpoint is a parsed socket address
type Endpoint struct {
	// Scheme selects the connector
	Scheme string
	// Address is passed to the connector: host:port for tcp, a file path for
	// unix and the full URL for websockets
	Address string
}

// String renders the endpoint in the form ParseAddress accepts
func (e Endpoint) String() string {
	switch e.Scheme {
	case SchemeWS, SchemeWSS:
		return e.Address
	default:
		return e.Scheme + "://" + e.Address
	}
}

// ParseAddress parses a socket address.
//
// Accepted forms:
//
//	3000                      tcp on 0.0.0.0:3000
//	:3000, localhost:3000     tcp
//	tcp://localhost:3000      tcp
//	unix:///tmp/dmq.sock      unix socket at /tmp/dmq.sock
//	/tmp/dmq.sock, ./x.sock   unix socket
//	ws://localhost:3000/dmq   websocket
func ParseAddress(addr string) (Endpoint, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Endpoint{}, fmt.Errorf("empty address")
	}

	if scheme, rest, ok := strings.Cut(addr, "://"); ok {
		switch strings.ToLower(scheme) {
		case SchemeTCP:
			return parseHostPort(rest, addr)
		case SchemeUnix:
			if rest == "" {
				return Endpoint{}, fmt.Errorf("invalid address %q: missing socket path", addr)
			}
			return Endpoint{Scheme: SchemeUnix, Address: rest}, nil
		case SchemeWS, SchemeWSS:
			u, err := url.Parse(addr)
			if err != nil {
				return Endpoint{}, fmt.Errorf("invalid address %q: %w", addr, err)
			}
			if u.Host == "" {
				return Endpoint{}, fmt.Errorf("invalid address %q: missing host", addr)
			}
			if u.Path == "" {
				u.Path = "/"
			}
			return Endpoint{Scheme: strings.ToLower(scheme), Address: u.String()}, nil
		default:
			return Endpoint{}, fmt.Errorf("invalid address %q: unsupported scheme %q", addr, scheme)
		}
	}

	// bare port
	if _, err := strconv.ParseUint(addr, 10, 16); err == nil {
		return Endpoint{Scheme: SchemeTCP, Address: net.JoinHostPort(DefaultHost, addr)}, nil
	}

	// file system path
	if strings.ContainsRune(addr, '/') || strings.HasSuffix(addr, ".sock") {
		return Endpoint{Scheme: SchemeUnix, Address: addr}, nil
	}

	return parseHostPort(addr, addr)
}

func parseHostPort(hostport, orig string) (Endpoint, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid address %q: %w", orig, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return Endpoint{}, fmt.Errorf("invalid address %q: bad port %q", orig, port)
	}
	if host == "" {
		host = DefaultHost
	}
	return Endpoint{Scheme: SchemeTCP, Address: net.JoinHostPort(host, port)}, nil
}

// EndpointFromAddr converts a listener address back into an Endpoint
func EndpointFromAddr(scheme string, addr net.Addr) Endpoint {
	return Endpoint{Scheme: scheme, Address: addr.String()}
}
