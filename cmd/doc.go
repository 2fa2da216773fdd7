// Package cmd implements the dmq command-line interface. Every data command
// opens one socket, binds or connects it and moves lines between the socket
// and stdin/stdout, so sockets can be tried out from a shell.
//
// The package is organized into several subpackages:
//
//   - pubsub: pub (publish stdin lines) and sub (print matching messages)
//   - pipeline: push (distribute stdin lines) and pull (print received messages)
//   - reqrep: req (send requests, print replies) and rep (echo server)
//   - bench: throughput and latency measurement of a local socket pair
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Configuration is read from flags, DMQ_ prefixed environment variables
// (.env and .env.local are loaded) and an optional YAML file (--config).
//
// See dmq -help for a list of all commands.
package cmd
