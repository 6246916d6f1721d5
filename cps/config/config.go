// Package config holds the machine configuration and its YAML file format.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-cps/cps/timing"
)

// Defaults for the board.
const (
	DefaultClockHz     = 11800000
	DefaultRefreshRate = timing.DefaultRefreshRate
	DefaultSampleRate  = 44100
)

// ErrTooFewScanlines is returned when the frame cannot hold the visible display.
var ErrTooFewScanlines = errors.New("scanline count below visible display")

// Error is a validation error for a single configuration field.
type Error struct {
	Field string
	Value any
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds all machine configuration.
type Config struct {
	CPU    CPUConfig    `yaml:"cpu"`
	Video  VideoConfig  `yaml:"video"`
	Audio  AudioConfig  `yaml:"audio"`
	Script ScriptConfig `yaml:"script"`

	path string
}

// CPUConfig contains the main processor timing.
type CPUConfig struct {
	ClockHz int `yaml:"clock_hz"`
	// RefreshRate is the video refresh rate in hundredths of Hz.
	RefreshRate int `yaml:"refresh_rate"`
	// SpeedAdjust scales the cycle budget, timing.SpeedAdjustUnit is 1.0.
	SpeedAdjust int `yaml:"speed_adjust"`
}

// VideoConfig contains the raster configuration.
type VideoConfig struct {
	Scanlines int `yaml:"scanlines"`
	// FrameSkip draws one of every FrameSkip+1 frames.
	FrameSkip int `yaml:"frame_skip"`
}

// AudioConfig contains the sound subsystem configuration.
type AudioConfig struct {
	Disabled   bool   `yaml:"disabled"`
	SampleRate int    `yaml:"sample_rate"`
	WAVPath    string `yaml:"wav_path"`
}

// ScriptConfig points at an optional Lua hook script.
type ScriptConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration of a stock board.
func Default() *Config {
	return &Config{
		CPU: CPUConfig{
			ClockHz:     DefaultClockHz,
			RefreshRate: DefaultRefreshRate,
			SpeedAdjust: timing.SpeedAdjustUnit,
		},
		Video: VideoConfig{
			Scanlines: timing.DefaultScanlines,
		},
		Audio: AudioConfig{
			SampleRate: DefaultSampleRate,
		},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	c.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.path = path
	return nil
}

// Path returns the file the configuration was loaded from or saved to.
func (c *Config) Path() string {
	return c.path
}

// Validate normalizes out of range values to their defaults. A frame too
// short for the visible display is an error.
func (c *Config) Validate() error {
	if c.CPU.ClockHz <= 0 {
		c.CPU.ClockHz = DefaultClockHz
	}

	if c.CPU.RefreshRate <= 0 {
		c.CPU.RefreshRate = DefaultRefreshRate
	}

	if c.CPU.SpeedAdjust <= 0 {
		c.CPU.SpeedAdjust = timing.SpeedAdjustUnit
	}

	if c.Video.Scanlines == 0 {
		c.Video.Scanlines = timing.DefaultScanlines
	}

	if c.Video.Scanlines < timing.FirstLine+timing.ActiveLines {
		return &Error{Field: "video.scanlines", Value: c.Video.Scanlines, Err: ErrTooFewScanlines}
	}

	if c.Video.FrameSkip < 0 {
		c.Video.FrameSkip = 0
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}

	return nil
}

// ClockPerFrame returns the processor cycles in one frame at nominal speed.
func (c *Config) ClockPerFrame() int {
	return timing.ClockPerFrame(c.CPU.ClockHz, c.CPU.RefreshRate)
}
