// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// Settings is the process configuration, read once at startup.
type Settings struct {
	Modbus  ModbusConfig  `mapstructure:"modbus"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Archive ArchiveConfig `mapstructure:"archive"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
}

// ---- MODBUS ----

type ModbusConfig struct {
	Type          string    `mapstructure:"type"` // tcp | rtu
	TCP           TCPConfig `mapstructure:"tcp"`
	COM           COMConfig `mapstructure:"com"`
	TimeoutMs     int       `mapstructure:"timeout_ms"`
	PollingTimeMs int       `mapstructure:"polling_time_ms"`
}

type TCPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type COMConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	Parity   string `mapstructure:"parity"`
	StopBits int    `mapstructure:"stop_bits"`
}

func (m ModbusConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

func (m ModbusConfig) PollingTime() time.Duration {
	return time.Duration(m.PollingTimeMs) * time.Millisecond
}

// ---- FILES ----

type PathsConfig struct {
	Devices string `mapstructure:"devices"`
	Recipes string `mapstructure:"recipes"`
	DataDir string `mapstructure:"data_dir"`
}

type ArchiveConfig struct {
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	ShiftOffsetHours int           `mapstructure:"shift_offset_hours"`
}

// ---- OUTBOUND ----

type HTTPConfig struct {
	Address        string `mapstructure:"address"`
	PushIntervalMs int    `mapstructure:"push_interval_ms"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type RedisConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	StateKey    string `mapstructure:"state_key"`
	EventStream string `mapstructure:"event_stream"`
}

type LogConfig struct {
	Level                string `mapstructure:"level"`
	Format               string `mapstructure:"format"`
	MaxConsecutiveErrors int    `mapstructure:"max_consecutive_errors"`
}

// ---- DEVICES ----

// DeviceList is the hot-reloaded device file.
type DeviceList struct {
	Kneaders []Device `yaml:"kneaders" json:"kneaders"`
}

// Device is one kneader on the shared bus.
type Device struct {
	Name          string     `yaml:"name" json:"name"`
	Address       uint8      `yaml:"address" json:"address"`
	CurrentWeight SignalSpec `yaml:"current_weight" json:"currentWeight"`
	RecipeWeight  SignalSpec `yaml:"recipe_weight" json:"recipeWeight"`
	Ready         SignalSpec `yaml:"ready" json:"ready"`
}

// SignalSpec locates and interprets one register window.
type SignalSpec struct {
	Register uint16           `yaml:"register" json:"register"`
	Count    uint16           `yaml:"count,omitempty" json:"count"`
	Type     decode.DataType  `yaml:"type,omitempty" json:"type"`
	Order    decode.ByteOrder `yaml:"order,omitempty" json:"order"`
	Equation string           `yaml:"equation,omitempty" json:"equation,omitempty"`
}
