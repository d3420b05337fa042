// Package config handles importer configuration loading and management.
package config

import (
	"fmt"
	"strings"
)

// Config holds all importer settings.
type Config struct {
	Host    HostConfig    `yaml:"host"`
	Import  ImportConfig  `yaml:"import"`
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// HostConfig describes the host application whose node set the shader
// graphs target.
type HostConfig struct {
	Version string `yaml:"version"` // e.g. "4.2", "3.6.5"
}

// ImportConfig holds the default category toggles.
type ImportConfig struct {
	Terrain bool `yaml:"terrain"`
	Props   bool `yaml:"props"`
	Trees   bool `yaml:"trees"`
}

// BakeConfig holds preview bake settings.
type BakeConfig struct {
	Size   int    `yaml:"size"`   // output edge in pixels, 0 = mask size
	Format string `yaml:"format"` // png or webp (lossless)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn, error
	LogFile string `yaml:"log_file"` // empty = console only
}

// Bake output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Default returns configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Host: HostConfig{
			Version: "4.2",
		},
		Import: ImportConfig{
			Terrain: true,
			Props:   true,
			Trees:   true,
		},
		Bake: BakeConfig{
			Size:   512,
			Format: FormatPNG,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Bake.Format) {
	case FormatPNG, FormatWebP:
	default:
		return fmt.Errorf("bake.format: unsupported %q", c.Bake.Format)
	}
	if c.Bake.Size < 0 {
		return fmt.Errorf("bake.size: must not be negative, got %d", c.Bake.Size)
	}
	return nil
}
