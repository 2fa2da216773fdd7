package common

import "errors"

var (
	// ErrRole is returned when an operation conflicts with the role a socket already took
	ErrRole = errors.New("socket role conflict")
	// ErrCapability is returned for operations the socket type does not support
	ErrCapability = errors.New("operation not supported by socket type")
	// ErrAddressInUse is returned when binding a local socket path a live process listens on
	ErrAddressInUse = errors.New("address already in use")
	// ErrClosed is returned for operations on a closed socket
	ErrClosed = errors.New("socket closed")
)
