// internal/poller/modbus/manager.go
package modbus

import (
	"sync"

	"go.uber.org/zap"
)

// Manager owns the single shared link to the bus. Exactly one request is
// in flight at a time; the unit address is set per request.
//
// Connection state only moves on EnsureConnected (up) and on link
// failures or MarkDisconnected (down). It never dials on its own.
type Manager struct {
	dial Dialer
	log  *zap.Logger

	mu      sync.Mutex
	sess    Session
	lastErr error
}

func NewManager(dial Dialer, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dial: dial,
		log:  log.With(zap.String("component", "modbus")),
	}
}

// EnsureConnected dials once if disconnected and reports the resulting
// state. Dial failures are logged and kept in LastError, never returned.
func (m *Manager) EnsureConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		return true
	}

	sess, err := m.dial()
	if err != nil {
		m.lastErr = err
		m.log.Warn("connect failed", zap.Error(err))
		return false
	}

	m.sess = sess
	m.lastErr = nil
	m.log.Info("connected")
	return true
}

// Connected reports the current state.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// LastError is the most recent connect or link error.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ReadHoldingRegisters reads qty registers from unit. Link failures are
// returned as *ConnectionLostError and drop the session; device errors
// are returned as-is and leave the link up.
func (m *Manager) ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return nil, &ConnectionLostError{Err: ErrNotConnected}
	}

	regs, err := m.sess.ReadHoldingRegisters(unit, addr, qty)
	if err == nil {
		return regs, nil
	}

	err = classify(err)
	if IsConnectionLost(err) {
		m.lastErr = err
		m.dropLocked()
	}
	return nil, err
}

// MarkDisconnected closes the session, if any.
func (m *Manager) MarkDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

// Close releases the link.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return nil
	}
	err := m.sess.Close()
	m.sess = nil
	return err
}

func (m *Manager) dropLocked() {
	if m.sess == nil {
		return
	}
	if err := m.sess.Close(); err != nil {
		m.log.Debug("close after link failure", zap.Error(err))
	}
	m.sess = nil
	m.log.Warn("disconnected")
}
