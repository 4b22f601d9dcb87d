// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// Session is one open link to the bus.
type Session interface {
	ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, error)
	Close() error
}

// Dialer opens a Session. ONE attempt per call.
type Dialer func() (Session, error)

// Config is minimal transport config.
type Config struct {
	Type    string // tcp | rtu
	Address string // host:port for tcp
	Timeout time.Duration

	// rtu only
	Port     string
	BaudRate int
	DataBits int
	Parity   string // N | E | O
	StopBits int
}

// DialerFor returns a Dialer backed by goburrow/modbus.
func DialerFor(cfg Config) (Dialer, error) {
	switch cfg.Type {
	case "tcp":
		if cfg.Address == "" {
			return nil, errors.New("modbus client: address required")
		}
		return func() (Session, error) {
			h := modbus.NewTCPClientHandler(cfg.Address)
			h.Timeout = cfg.Timeout
			if err := h.Connect(); err != nil {
				return nil, err
			}
			return &session{
				closer:  h,
				client:  modbus.NewClient(h),
				setUnit: func(u uint8) { h.SlaveId = u },
			}, nil
		}, nil

	case "rtu":
		if cfg.Port == "" {
			return nil, errors.New("modbus client: serial port required")
		}
		return func() (Session, error) {
			h := modbus.NewRTUClientHandler(cfg.Port)
			h.BaudRate = cfg.BaudRate
			h.DataBits = cfg.DataBits
			h.Parity = cfg.Parity
			h.StopBits = cfg.StopBits
			h.Timeout = cfg.Timeout
			if err := h.Connect(); err != nil {
				return nil, err
			}
			return &session{
				closer:  h,
				client:  modbus.NewClient(h),
				setUnit: func(u uint8) { h.SlaveId = u },
			}, nil
		}, nil
	}

	return nil, fmt.Errorf("modbus client: unsupported type %q", cfg.Type)
}

// TCPAddress joins host and port.
func TCPAddress(host string, port int) string {
	return net.JoinHostPort(host, fmt.Sprint(port))
}

// session serializes nothing itself; Manager holds the lock.
type session struct {
	closer  interface{ Close() error }
	client  modbus.Client
	setUnit func(uint8)
}

func (s *session) ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, error) {
	s.setUnit(unit)

	raw, err := s.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	if len(raw) != int(qty)*2 {
		return nil, fmt.Errorf("modbus: short read-registers payload: got=%d bytes want=%d", len(raw), int(qty)*2)
	}
	return decode.Words(raw), nil
}

func (s *session) Close() error {
	return s.closer.Close()
}
