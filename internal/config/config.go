// Package config handles converter configuration loading and management.
package config

import "github.com/pkg/errors"

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Marks   MarksConfig   `yaml:"marks"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds sampling and texturing settings.
type ConvertConfig struct {
	StepSize          float64 `yaml:"step_size"`           // Sampling interval along the reference line, meters
	TextureDir        string  `yaml:"texture_dir"`         // Directory with surface textures, empty for flat colors
	SurfaceTileLength float64 `yaml:"surface_tile_length"` // Meters of road per texture repeat
	MarkTileLength    float64 `yaml:"mark_tile_length"`
}

// MarksConfig holds broken lane-mark dash settings.
type MarksConfig struct {
	DashLength float64 `yaml:"dash_length"`
	GapLength  float64 `yaml:"gap_length"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			StepSize:          1.0,
			TextureDir:        "",
			SurfaceTileLength: 10.0,
			MarkTileLength:    2.0,
		},
		Marks: MarksConfig{
			DashLength: 3.0,
			GapLength:  1.0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that the numeric settings are usable.
func (c *Config) Validate() error {
	if c.Convert.StepSize <= 0 {
		return errors.Errorf("step_size must be positive, got %g", c.Convert.StepSize)
	}
	if c.Convert.SurfaceTileLength <= 0 {
		return errors.Errorf("surface_tile_length must be positive, got %g", c.Convert.SurfaceTileLength)
	}
	if c.Convert.MarkTileLength <= 0 {
		return errors.Errorf("mark_tile_length must be positive, got %g", c.Convert.MarkTileLength)
	}
	if c.Marks.DashLength <= 0 || c.Marks.GapLength < 0 {
		return errors.Errorf("dash/gap lengths invalid: dash %g gap %g", c.Marks.DashLength, c.Marks.GapLength)
	}
	return nil
}
