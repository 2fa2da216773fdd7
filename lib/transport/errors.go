package transport

import (
	"errors"
	"net"
	"os"
	"syscall"
)

// transientErrors are the connection errors sockets treat as routine churn
var transientErrors = map[syscall.Errno]string{
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.ECONNRESET:   "ECONNRESET",
	syscall.ETIMEDOUT:    "ETIMEDOUT",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.ENETUNREACH:  "ENETUNREACH",
	syscall.ENETDOWN:     "ENETDOWN",
	syscall.EPIPE:        "EPIPE",
	syscall.ENOENT:       "ENOENT",
}

// IsTransient reports whether err is a routine connection failure
// (refused, reset, timed out, unreachable, network down, broken pipe, missing socket file)
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		_, ok := transientErrors[errno]
		return ok
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsAddrInUse reports whether err is caused by EADDRINUSE
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// IsClosed reports whether err is the result of closing the connection locally
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// ErrorCode returns the symbolic errno name of a transient error, or the plain error text
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if code, ok := transientErrors[errno]; ok {
			return code
		}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "ETIMEDOUT"
	}
	return err.Error()
}
