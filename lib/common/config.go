package common

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Unbounded disables the high water mark of a socket queue
const Unbounded = -1

// --------------------------------------------------------------------------
// Transport configuration struct
// --------------------------------------------------------------------------

// TransportConfig tunes the connections of a socket
type TransportConfig struct {
	// disable Nagle's algorithm on TCP connections
	TCPNoDelay bool `yaml:"tcp_nodelay"`
	// TCP keep alive period, 0 disables keep alive
	TCPKeepAlive time.Duration `yaml:"tcp_keepalive"`
	// SO_LINGER in seconds, negative values keep the OS default
	TCPLingerSec int `yaml:"tcp_linger_sec"`
	// kernel socket buffer sizes in bytes, 0 keeps the OS default
	WriteBufferSize int `yaml:"write_buffer_size"`
	ReadBufferSize  int `yaml:"read_buffer_size"`

	// number of encoded messages buffered per connection before it stops being writable
	WriteQueueSize int `yaml:"write_queue_size"`
	// largest frame accepted from a peer
	MaxFrameSize int `yaml:"max_frame_size"`
	// timeout of a single connect attempt
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// DefaultTransportConfig returns the transport defaults
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		TCPNoDelay:      true,
		TCPKeepAlive:    30 * time.Second,
		TCPLingerSec:    -1,
		WriteBufferSize: 0,
		ReadBufferSize:  0,
		WriteQueueSize:  1024,
		MaxFrameSize:    64 << 20,
		DialTimeout:     5 * time.Second,
	}
}

// --------------------------------------------------------------------------
// Socket configuration struct
// --------------------------------------------------------------------------

// SocketConfig holds the settings of a single socket
type SocketConfig struct {
	// maximum number of messages buffered while no peer can take them, Unbounded disables the limit
	HWM int `yaml:"hwm"`
	// identity used as prefix of request correlation ids
	Identity string `yaml:"identity"`
	// base reconnect delay, 0 disables reconnecting
	RetryTimeout time.Duration `yaml:"retry_timeout"`
	// upper bound of the reconnect delay
	RetryMaxTimeout time.Duration `yaml:"retry_max_timeout"`

	Transport TransportConfig `yaml:"transport"`
}

var (
	processIdentity     string
	processIdentityOnce sync.Once
)

// DefaultIdentity returns the identity shared by all sockets of this process
func DefaultIdentity() string {
	processIdentityOnce.Do(func() {
		processIdentity = uuid.NewString()
	})
	return processIdentity
}

// DefaultSocketConfig returns the socket defaults
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		HWM:             Unbounded,
		Identity:        DefaultIdentity(),
		RetryTimeout:    100 * time.Millisecond,
		RetryMaxTimeout: 5 * time.Second,
		Transport:       DefaultTransportConfig(),
	}
}

// Validate checks the configuration for inconsistent values
func (c *SocketConfig) Validate() error {
	if c.HWM < Unbounded {
		return fmt.Errorf("invalid hwm %d: must be >= 0 or %d (unbounded)", c.HWM, Unbounded)
	}
	if c.Identity == "" {
		return fmt.Errorf("identity must not be empty")
	}
	if c.RetryTimeout < 0 {
		return fmt.Errorf("retry timeout must not be negative")
	}
	if c.RetryTimeout > 0 && c.RetryMaxTimeout < c.RetryTimeout {
		return fmt.Errorf("retry max timeout (%s) must not be smaller than retry timeout (%s)", c.RetryMaxTimeout, c.RetryTimeout)
	}
	if c.Transport.WriteQueueSize < 1 {
		return fmt.Errorf("write queue size must be at least 1")
	}
	if c.Transport.MaxFrameSize < 1 {
		return fmt.Errorf("max frame size must be at least 1")
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *SocketConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	hwm := strconv.Itoa(c.HWM)
	if c.HWM == Unbounded {
		hwm = "unbounded"
	}

	addSection("Socket")
	addField("Identity", c.Identity)
	addField("High Water Mark", hwm)
	addField("Retry Timeout", c.RetryTimeout.String())
	addField("Retry Max Timeout", c.RetryMaxTimeout.String())

	addSection("Transport")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", c.Transport.TCPKeepAlive.String())
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	addField("Write Buffer Size", strconv.Itoa(c.Transport.WriteBufferSize))
	addField("Read Buffer Size", strconv.Itoa(c.Transport.ReadBufferSize))
	addField("Write Queue Size", strconv.Itoa(c.Transport.WriteQueueSize))
	addField("Max Frame Size", strconv.Itoa(c.Transport.MaxFrameSize))
	addField("Dial Timeout", c.Transport.DialTimeout.String())

	return sb.String()
}
