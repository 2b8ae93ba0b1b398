// Package config loads application configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Session  SessionConfig  `yaml:"session"`
	Sampling SamplingConfig `yaml:"sampling"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Log      LogConfig      `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// SessionConfig contains the stimulator settings applied on connect.
type SessionConfig struct {
	Baseline  float64 `yaml:"baseline"`   // resting temperature, degrees C
	MaxTemp   float64 `yaml:"max_temp"`   // firmware-enforced stimulation cap
	TriggerIn bool    `yaml:"trigger_in"` // arm the external trigger input
	Beep      bool    `yaml:"beep"`       // buzzer before each stimulation
}

// SamplingConfig contains temperature sampling parameters.
type SamplingConfig struct {
	// TailOffset extends the sampling loop past the stimulation span to
	// capture the end of the return ramp.
	TailOffset time.Duration `yaml:"tail_offset"`
}

// ProtocolConfig contains protocol file generation settings.
type ProtocolConfig struct {
	RecordTemperatures bool `yaml:"record_temperatures"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:        "/dev/ttyACM0", // "COM3" or similar on Windows
			BaudRate:    115200,
			ReadTimeout: 100 * time.Millisecond,
		},
		Session: SessionConfig{
			Baseline:  30,
			MaxTemp:   50,
			TriggerIn: true,
			Beep:      false,
		},
		Sampling: SamplingConfig{
			TailOffset: time.Second,
		},
		Protocol: ProtocolConfig{
			RecordTemperatures: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}
