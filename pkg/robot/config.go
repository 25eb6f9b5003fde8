package robot

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const DefaultConfigFile = "envirobot.toml"

// Config holds the configuration of both ends of the link.
type Config struct {
	Station      StationConfig `toml:"station"`
	Robot        RobotConfig   `toml:"robot"`
	LogFile      string        `toml:"log_file,omitempty"`
	DebugLogging bool          `toml:"debug_logging"`
}

// StationConfig configures the ground station.
type StationConfig struct {
	Listen            string     `toml:"listen"`
	VideoURL          string     `toml:"video_url"`
	MQTT              MQTTConfig `toml:"mqtt,omitempty"`
	PollIntervalMs    int        `toml:"poll_interval_ms"`
	ExchangeTimeoutMs int        `toml:"exchange_timeout_ms"`
	DebounceMs        int        `toml:"debounce_ms"`
	KeyHoldMs         int        `toml:"key_hold_ms"`
	FrameWidth        int        `toml:"frame_width"`
	FrameHeight       int        `toml:"frame_height"`
	MaxFrameBuffer    int        `toml:"max_frame_buffer"`
}

// MQTTConfig enables publishing of telemetry readings when Broker is set.
type MQTTConfig struct {
	Broker string `toml:"broker,omitempty"`
	Topic  string `toml:"topic,omitempty"`
}

// RobotConfig configures the relay on the robot.
type RobotConfig struct {
	StationAddr        string `toml:"station_addr"`
	SerialPort         string `toml:"serial_port"`
	BaudRate           int    `toml:"baud_rate"`
	ReadTimeoutMs      int    `toml:"read_timeout_ms"`
	CycleDelayMs       int    `toml:"cycle_delay_ms"`
	SettleDelayMs      int    `toml:"settle_delay_ms"`
	ControllerPollMs   int    `toml:"controller_poll_ms"`
	ReconnectDelayMs   int    `toml:"reconnect_delay_ms"`
	IdleTimeoutMs      int    `toml:"idle_timeout_ms"`
	SimulateController bool   `toml:"simulate_controller"`
}

// BaseDefaults are applied before the config file is read, so a file only
// needs the values it changes.
var BaseDefaults = Config{
	Station: StationConfig{
		Listen:            ":5005",
		VideoURL:          "http://192.168.1.103:8080/?action=stream",
		PollIntervalMs:    50,
		ExchangeTimeoutMs: 5000,
		DebounceMs:        200,
		KeyHoldMs:         150,
		FrameWidth:        640,
		FrameHeight:       480,
		MaxFrameBuffer:    4 << 20,
	},
	Robot: RobotConfig{
		StationAddr:      "192.168.1.148:5005",
		SerialPort:       "/dev/ttyACM0",
		BaudRate:         57600,
		ReadTimeoutMs:    100,
		CycleDelayMs:     20,
		SettleDelayMs:    3000,
		ControllerPollMs: 1000,
		ReconnectDelayMs: 2000,
		IdleTimeoutMs:    10000,
	},
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file on top of
// BaseDefaults. A missing file yields the defaults.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := BaseDefaults
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ConfigExists returns true if the file at path exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// PollInterval is the exchange loop period.
func (s StationConfig) PollInterval() time.Duration { return ms(s.PollIntervalMs) }

// ExchangeTimeout bounds the wait for the relay's reply.
func (s StationConfig) ExchangeTimeout() time.Duration { return ms(s.ExchangeTimeoutMs) }

// Debounce is the toggle key debounce window.
func (s StationConfig) Debounce() time.Duration { return ms(s.DebounceMs) }

// KeyHold is how long a key counts as held after its last event.
func (s StationConfig) KeyHold() time.Duration { return ms(s.KeyHoldMs) }

// ReadTimeout is the serial read timeout.
func (r RobotConfig) ReadTimeout() time.Duration { return ms(r.ReadTimeoutMs) }

// CycleDelay is the pause between relay cycles.
func (r RobotConfig) CycleDelay() time.Duration { return ms(r.CycleDelayMs) }

// SettleDelay is how long the microcontroller needs after the port opens.
func (r RobotConfig) SettleDelay() time.Duration { return ms(r.SettleDelayMs) }

// ControllerPoll is the minimum time between serial open attempts.
func (r RobotConfig) ControllerPoll() time.Duration { return ms(r.ControllerPollMs) }

// ReconnectDelay is the pause before redialling the station.
func (r RobotConfig) ReconnectDelay() time.Duration { return ms(r.ReconnectDelayMs) }

// IdleTimeout is how long the relay waits for a command before treating
// the station link as lost.
func (r RobotConfig) IdleTimeout() time.Duration { return ms(r.IdleTimeoutMs) }
