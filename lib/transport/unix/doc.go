// Package unix implements the Unix domain socket connector for dMQ sockets.
//
// Listen recovers from stale socket files: if the path is in use, a probe
// connection decides whether a live process owns it. A successful probe
// yields common.ErrAddressInUse, a refused probe (or a vanished file)
// removes the stale file and listens again.
package unix
