// internal/poller/modbus/errors.go
package modbus

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/goburrow/modbus"
)

// ErrNotConnected is returned for reads attempted without a session.
var ErrNotConnected = errors.New("modbus: not connected")

// ConnectionLostError marks a failure of the link itself, as opposed to a
// device answering with an exception or garbage.
type ConnectionLostError struct {
	Err error
}

func (e *ConnectionLostError) Error() string {
	return "modbus: connection lost: " + e.Err.Error()
}

func (e *ConnectionLostError) Unwrap() error { return e.Err }

// IsConnectionLost reports whether err means the shared link is unusable.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}

	var lost *ConnectionLostError
	if errors.As(err, &lost) {
		return true
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return false
	}

	if errors.Is(err, ErrNotConnected) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// goburrow/serial reports timeouts and closed ports as plain strings.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "port is closed") ||
		strings.Contains(msg, "file already closed")
}

// classify wraps link failures in ConnectionLostError and passes the rest through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var lost *ConnectionLostError
	if errors.As(err, &lost) {
		return err
	}
	if IsConnectionLost(err) {
		return &ConnectionLostError{Err: err}
	}
	return err
}
