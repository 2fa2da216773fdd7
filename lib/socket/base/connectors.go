package base

import (
	"fmt"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/transport"
	"github.com/ValentinKolb/dMQ/lib/transport/tcp"
	"github.com/ValentinKolb/dMQ/lib/transport/unix"
	"github.com/ValentinKolb/dMQ/lib/transport/ws"
)

// connectorFor selects the connector of an endpoint scheme
func connectorFor(scheme string, config common.TransportConfig) (transport.IConnector, error) {
	switch scheme {
	case transport.SchemeTCP:
		return tcp.NewConnector(config), nil
	case transport.SchemeUnix:
		return unix.NewConnector(config), nil
	case transport.SchemeWS, transport.SchemeWSS:
		return ws.NewConnector(config), nil
	default:
		return nil, fmt.Errorf("no transport for scheme %q", scheme)
	}
}
