// Package config defines the Demodulator's configuration surface and the
// YAML-backed loader that builds it. internal/dsp and internal/pipeline
// only ever see a populated Config value, never a file path.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SignalType selects the GOES downlink profile.
type SignalType string

const (
	LRIT SignalType = "LRIT"
	HRIT SignalType = "HRIT"
)

// Symbol rates, in symbols/second, for each GOES downlink profile.
const (
	LRITSymbolRate = 293883
	HRITSymbolRate = 927000
)

// ConfigError reports an invalid or inconsistent parameter detected at
// Validate/Load time. It is always fatal and always surfaced to the
// caller.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// AGCConfig holds automatic-gain-control parameters.
type AGCConfig struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// CostasConfig holds Costas-loop parameters.
type CostasConfig struct {
	MaxDeviation float32 `yaml:"maxDeviation"`
	Bandwidth    float32 `yaml:"bandwidth"`
}

// ClockConfig holds clock-recovery parameters.
type ClockConfig struct {
	Bandwidth float32 `yaml:"bandwidth"`
}

// QueueConfig bounds buffer counts per queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// BlockConfig sizes the samples-per-block performance knob.
type BlockConfig struct {
	Size int `yaml:"size"`
}

// PublisherConfig carries opaque endpoint strings consumed by external
// publishers (the core treats these as uninterpreted strings).
type PublisherConfig struct {
	Samples  string `yaml:"samples,omitempty"`
	SoftBits string `yaml:"softBits,omitempty"`
	Stats    string `yaml:"stats,omitempty"`
}

// Config is the full configuration surface recognised by
// pipeline.Demodulator.Initialize.
type Config struct {
	Type       SignalType      `yaml:"type"`
	SampleRate float32         `yaml:"sampleRate"`
	Decimation int             `yaml:"decimation"`
	AGC        AGCConfig       `yaml:"agc"`
	Costas     CostasConfig    `yaml:"costas"`
	Clock      ClockConfig     `yaml:"clock"`
	Queue      QueueConfig     `yaml:"queue"`
	Block      BlockConfig     `yaml:"block"`
	Publishers PublisherConfig `yaml:"publishers"`
}

// Default returns a Config populated with typical values: 32 buffers per
// queue, 32k-sample blocks.
func Default(t SignalType) Config {
	return Config{
		Type:       t,
		SampleRate: 2_400_000,
		Decimation: 2,
		AGC:        AGCConfig{Min: 0.001, Max: 100},
		Costas:     CostasConfig{MaxDeviation: 0.01, Bandwidth: 0.01},
		Clock:      ClockConfig{Bandwidth: 0.01},
		Queue:      QueueConfig{Capacity: 32},
		Block:      BlockConfig{Size: 32 * 1024},
	}
}

// SymbolRate resolves the configured Type to its symbol rate in
// symbols/second.
func (c Config) SymbolRate() (float32, error) {
	switch c.Type {
	case LRIT:
		return LRITSymbolRate, nil
	case HRIT:
		return HRITSymbolRate, nil
	default:
		return 0, &ConfigError{Field: "type", Msg: fmt.Sprintf("unknown signal type %q", c.Type)}
	}
}

// Validate checks every parameter Initialize depends on, returning the
// first ConfigError found.
func (c Config) Validate() error {
	if _, err := c.SymbolRate(); err != nil {
		return err
	}
	if c.SampleRate <= 0 {
		return &ConfigError{Field: "sampleRate", Msg: "must be positive"}
	}
	if c.Decimation <= 0 {
		return &ConfigError{Field: "decimation", Msg: "must be a positive integer"}
	}
	symbolRate, _ := c.SymbolRate()
	decimatedRate := c.SampleRate / float32(c.Decimation)
	samplesPerSymbol := decimatedRate / symbolRate
	if samplesPerSymbol < 1 {
		return &ConfigError{
			Field: "decimation",
			Msg:   "decimated sample rate is below the symbol rate; clock recovery needs at least one sample per symbol",
		}
	}
	if c.AGC.Min <= 0 || c.AGC.Max <= c.AGC.Min {
		return &ConfigError{Field: "agc", Msg: "min must be positive and max must exceed min"}
	}
	if c.Costas.MaxDeviation <= 0 {
		return &ConfigError{Field: "costas.maxDeviation", Msg: "must be positive"}
	}
	if c.Costas.Bandwidth <= 0 {
		return &ConfigError{Field: "costas.bandwidth", Msg: "must be positive"}
	}
	if c.Clock.Bandwidth <= 0 {
		return &ConfigError{Field: "clock.bandwidth", Msg: "must be positive"}
	}
	if c.Queue.Capacity <= 0 {
		return &ConfigError{Field: "queue.capacity", Msg: "must be a positive integer"}
	}
	if c.Block.Size <= 0 {
		return &ConfigError{Field: "block.size", Msg: "must be a positive integer"}
	}
	return nil
}

// Load reads and parses a YAML configuration file, defaulting unset
// fields from Default(LRIT) first, then validating the result. This is
// the external "config loader" collaborator; internal/dsp never imports
// this package.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Field: "path", Msg: err.Error()}
	}

	cfg := Default(LRIT)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Field: "yaml", Msg: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
