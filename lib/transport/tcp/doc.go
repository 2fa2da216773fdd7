// Package tcp implements the TCP connector for dMQ sockets.
//
// Connections are tuned according to common.TransportConfig: Nagle's
// algorithm, kernel buffer sizes, keep alive and linger are applied to every
// dialed and accepted connection by UpgradeConnection.
package tcp
