// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// maxReadCount is the Modbus limit for one holding register read.
const maxReadCount = 125

// ValidateDevices checks the device list.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func ValidateDevices(dl *DeviceList) error {
	if dl == nil {
		return errors.New("device list is nil")
	}

	owner := make(map[uint8]string)

	for i, d := range dl.Kneaders {
		label := d.Name
		if label == "" {
			label = fmt.Sprintf("kneaders[%d]", i)
		}

		if d.Name == "" {
			return fmt.Errorf("%s: name required", label)
		}
		if d.Address < 1 || d.Address > 247 {
			return fmt.Errorf("kneader %q: address %d out of range 1-247", label, d.Address)
		}
		if prev, exists := owner[d.Address]; exists {
			return fmt.Errorf(
				"address collision: address=%d used by kneaders %q and %q",
				d.Address,
				prev,
				label,
			)
		}
		owner[d.Address] = label

		for _, sig := range []struct {
			name string
			spec SignalSpec
		}{
			{"current_weight", d.CurrentWeight},
			{"recipe_weight", d.RecipeWeight},
			{"ready", d.Ready},
		} {
			if err := validateSignal(sig.spec); err != nil {
				return fmt.Errorf("kneader %q: %s: %w", label, sig.name, err)
			}
		}
	}

	return nil
}

func validateSignal(s SignalSpec) error {
	if !s.Type.Known() {
		return fmt.Errorf("unknown type %q", s.Type)
	}
	if !s.Order.Known() {
		return fmt.Errorf("unknown order %q", s.Order)
	}
	if s.Count < 1 || s.Count > maxReadCount {
		return fmt.Errorf("count %d out of range 1-%d", s.Count, maxReadCount)
	}
	if s.Count < s.Type.Registers() {
		return fmt.Errorf("type %s needs %d registers, count is %d", s.Type, s.Type.Registers(), s.Count)
	}
	if s.Order == decode.Swapped && s.Count != 2 {
		return fmt.Errorf("order swapped needs exactly 2 registers, count is %d", s.Count)
	}
	if uint32(s.Register)+uint32(s.Count) > 0x10000 {
		return fmt.Errorf("register window %d+%d exceeds address space", s.Register, s.Count)
	}
	if s.Equation != "" {
		if s.Type == decode.Bool {
			return errors.New("equation not allowed on bool signal")
		}
		if err := decode.Compile(s.Equation); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSettings checks startup settings.
func ValidateSettings(s *Settings) error {
	if s == nil {
		return errors.New("settings are nil")
	}

	switch s.Modbus.Type {
	case "tcp":
		if s.Modbus.TCP.Host == "" {
			return errors.New("modbus.tcp.host required")
		}
		if s.Modbus.TCP.Port < 1 || s.Modbus.TCP.Port > 65535 {
			return fmt.Errorf("modbus.tcp.port %d out of range", s.Modbus.TCP.Port)
		}
	case "rtu":
		if s.Modbus.COM.Port == "" {
			return errors.New("modbus.com.port required")
		}
		if s.Modbus.COM.BaudRate <= 0 {
			return fmt.Errorf("modbus.com.baud_rate %d invalid", s.Modbus.COM.BaudRate)
		}
		if s.Modbus.COM.DataBits < 5 || s.Modbus.COM.DataBits > 8 {
			return fmt.Errorf("modbus.com.data_bits %d invalid", s.Modbus.COM.DataBits)
		}
		if s.Modbus.COM.StopBits != 1 && s.Modbus.COM.StopBits != 2 {
			return fmt.Errorf("modbus.com.stop_bits %d invalid", s.Modbus.COM.StopBits)
		}
	default:
		return fmt.Errorf("modbus.type %q must be tcp or rtu", s.Modbus.Type)
	}

	if s.Modbus.TimeoutMs <= 0 {
		return errors.New("modbus.timeout_ms must be > 0")
	}
	if s.Modbus.PollingTimeMs <= 0 {
		return errors.New("modbus.polling_time_ms must be > 0")
	}
	if s.Paths.Devices == "" || s.Paths.Recipes == "" || s.Paths.DataDir == "" {
		return errors.New("paths.devices, paths.recipes and paths.data_dir are required")
	}
	if s.Archive.SweepInterval <= 0 {
		return errors.New("archive.sweep_interval must be > 0")
	}
	if s.HTTP.PushIntervalMs <= 0 {
		return errors.New("http.push_interval_ms must be > 0")
	}
	if s.MQTT.Enabled && s.MQTT.Broker == "" {
		return errors.New("mqtt.broker required when mqtt is enabled")
	}
	if s.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d invalid", s.MQTT.QoS)
	}
	if s.Redis.Enabled && s.Redis.Addr == "" {
		return errors.New("redis.addr required when redis is enabled")
	}

	return nil
}
