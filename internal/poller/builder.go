// internal/poller/builder.go
package poller

import (
	"go.uber.org/zap"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	pmodbus "github.com/tamzrod/kneader-monitor/internal/poller/modbus"
)

// BuildLink constructs the shared bus link from settings.
// It does not dial; the scheduler connects on its first cycle.
func BuildLink(m cfg.ModbusConfig, log *zap.Logger) (*pmodbus.Manager, error) {
	dial, err := pmodbus.DialerFor(pmodbus.Config{
		Type:     m.Type,
		Address:  pmodbus.TCPAddress(m.TCP.Host, m.TCP.Port),
		Timeout:  m.Timeout(),
		Port:     m.COM.Port,
		BaudRate: m.COM.BaudRate,
		DataBits: m.COM.DataBits,
		Parity:   m.COM.Parity,
		StopBits: m.COM.StopBits,
	})
	if err != nil {
		return nil, err
	}

	return pmodbus.NewManager(dial, log), nil
}
