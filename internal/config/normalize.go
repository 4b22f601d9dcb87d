// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// NormalizeDevices applies signal defaults.
// It is allowed to mutate configuration and runs before ValidateDevices.
func NormalizeDevices(dl *DeviceList) {
	if dl == nil {
		return
	}

	for i := range dl.Kneaders {
		d := &dl.Kneaders[i]

		d.Name = strings.TrimSpace(d.Name)

		normalizeSignal(&d.CurrentWeight, decode.Float32)
		normalizeSignal(&d.RecipeWeight, decode.Float32)
		normalizeSignal(&d.Ready, decode.Bool)
	}
}

func normalizeSignal(s *SignalSpec, defType decode.DataType) {
	s.Type = decode.DataType(strings.ToLower(strings.TrimSpace(string(s.Type))))
	s.Order = decode.ByteOrder(strings.ToLower(strings.TrimSpace(string(s.Order))))
	s.Equation = strings.TrimSpace(s.Equation)

	if s.Type == "" {
		s.Type = defType
	}
	if s.Order == "" {
		s.Order = decode.Normal
	}
	if s.Count == 0 {
		s.Count = s.Type.Registers()
	}
}

// NormalizeSettings fills defaults viper cannot express and canonicalises enums.
func NormalizeSettings(s *Settings) {
	if s == nil {
		return
	}

	s.Modbus.Type = strings.ToLower(strings.TrimSpace(s.Modbus.Type))

	switch strings.ToLower(strings.TrimSpace(s.Modbus.COM.Parity)) {
	case "e", "even":
		s.Modbus.COM.Parity = "E"
	case "o", "odd":
		s.Modbus.COM.Parity = "O"
	default:
		s.Modbus.COM.Parity = "N"
	}

	if s.MQTT.TopicPrefix != "" {
		s.MQTT.TopicPrefix = strings.TrimSuffix(s.MQTT.TopicPrefix, "/")
	}
}
