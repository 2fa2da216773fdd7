// Package common provides configuration, errors and logging shared by all dMQ
// packages.
//
// Key Components:
//
//   - SocketConfig: per-socket settings (high water mark, identity, reconnect
//     timing) together with TransportConfig for connection tuning.
//     DefaultSocketConfig returns the documented defaults, LoadSocketConfig
//     reads overrides from a YAML file.
//
//   - Errors: the sentinel errors returned synchronously by socket operations
//     (ErrRole, ErrCapability, ErrAddressInUse, ErrClosed).
//
//   - Logger: custom formatting for Dragonboat's logger package. Every dMQ
//     package obtains its logger via GetLogger, which registers the name.
//     InitLoggers installs the factory and sets the level for every
//     registered logger.
package common
