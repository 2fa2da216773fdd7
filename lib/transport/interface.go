package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/dMQ/lib/common"
)

var Logger = common.GetLogger("transport")

// --------------------------------------------------------------------------
// Connectors
// --------------------------------------------------------------------------

// IClientConnector establishes outgoing connections for one scheme
type IClientConnector interface {
	// GetName returns the scheme of the connector (e.g. "tcp", "unix")
	GetName() string

	// Dial opens a connection to the address. It must honor ctx cancellation.
	Dial(ctx context.Context, address string) (net.Conn, error)

	// UpgradeConnection applies transport specific settings to an established connection
	UpgradeConnection(conn net.Conn) error
}

// IServerConnector accepts incoming connections for one scheme
type IServerConnector interface {
	// GetName returns the scheme of the connector (e.g. "tcp", "unix")
	GetName() string

	// Listen creates a listener for the address
	Listen(address string) (net.Listener, error)

	// UpgradeConnection applies transport specific settings to an accepted connection
	UpgradeConnection(conn net.Conn) error
}

// IConnector implements both halves of a transport
type IConnector interface {
	IClientConnector
	IServerConnector
}
