// internal/config/load.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. KNEADER_MODBUS_TCP_HOST.
const EnvPrefix = "KNEADER"

func setDefaults(v *viper.Viper) {
	v.SetDefault("modbus.type", "tcp")
	v.SetDefault("modbus.tcp.host", "127.0.0.1")
	v.SetDefault("modbus.tcp.port", 502)
	v.SetDefault("modbus.com.port", "")
	v.SetDefault("modbus.com.baud_rate", 9600)
	v.SetDefault("modbus.com.data_bits", 8)
	v.SetDefault("modbus.com.parity", "N")
	v.SetDefault("modbus.com.stop_bits", 1)
	v.SetDefault("modbus.timeout_ms", 1000)
	v.SetDefault("modbus.polling_time_ms", 5000)

	v.SetDefault("paths.devices", "config/kneaders.yaml")
	v.SetDefault("paths.recipes", "config/recipes.yaml")
	v.SetDefault("paths.data_dir", "data")

	v.SetDefault("archive.sweep_interval", "1h")
	v.SetDefault("archive.shift_offset_hours", 3)

	v.SetDefault("http.address", ":3000")
	v.SetDefault("http.push_interval_ms", 50)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "kneader-monitor")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.topic_prefix", "kneaders")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.state_key", "kneaders:state")
	v.SetDefault("redis.event_stream", "kneaders:events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_consecutive_errors", 5)
}

// LoadSettings reads the settings file (if path is non-empty), applies
// defaults and KNEADER_* environment overrides, then normalizes and
// validates the result.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	NormalizeSettings(&s)
	if err := ValidateSettings(&s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &s, nil
}

// ParseDevices decodes, normalizes and validates a device list document.
// JSON documents are accepted as well.
func ParseDevices(raw []byte) (*DeviceList, error) {
	var dl DeviceList
	if err := yaml.Unmarshal(raw, &dl); err != nil {
		return nil, fmt.Errorf("parse devices: %w", err)
	}

	NormalizeDevices(&dl)
	if err := ValidateDevices(&dl); err != nil {
		return nil, err
	}
	return &dl, nil
}

// DeviceFile is the device list on disk. It is re-read on every Load.
type DeviceFile struct {
	Path string

	mu sync.Mutex
}

// Load reads the current device list.
func (f *DeviceFile) Load() ([]Device, error) {
	f.mu.Lock()
	raw, err := os.ReadFile(f.Path)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("read devices %s: %w", f.Path, err)
	}

	dl, err := ParseDevices(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return dl.Kneaders, nil
}

// Save validates and replaces the device list.
func (f *DeviceFile) Save(devices []Device) error {
	dl := DeviceList{Kneaders: devices}
	if dl.Kneaders == nil {
		dl.Kneaders = []Device{}
	}

	NormalizeDevices(&dl)
	if err := ValidateDevices(&dl); err != nil {
		return err
	}

	raw, err := yaml.Marshal(&dl)
	if err != nil {
		return fmt.Errorf("encode devices: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.Path, raw, 0o644)
}
