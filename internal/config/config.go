// Package config handles tool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"
)

// Config holds all tool settings.
type Config struct {
	Horizon HorizonConfig `yaml:"horizon"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// HorizonConfig holds horizon pipeline settings.
type HorizonConfig struct {
	Azimuths    int    `yaml:"azimuths"`     // Number of compass directions, must divide 360
	Workers     int    `yaml:"workers"`      // Concurrent azimuth passes
	RowWorkers  int    `yaml:"row_workers"`  // Concurrent rows per pass, 0 = GOMAXPROCS
	ScratchDir  string `yaml:"scratch_dir"`  // Where per-azimuth fields are stored
	KeepScratch bool   `yaml:"keep_scratch"` // Leave per-azimuth fields after compression
}

// OutputConfig holds output locations.
type OutputConfig struct {
	Dir        string `yaml:"dir"`         // Empty writes next to the input file
	PreviewDir string `yaml:"preview_dir"` // Empty disables PNG previews
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Horizon: HorizonConfig{
			Azimuths:    360,
			Workers:     8,
			RowWorkers:  0,
			ScratchDir:  "./horizons",
			KeepScratch: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Horizon.Azimuths <= 0 || 360%c.Horizon.Azimuths != 0 {
		errs = append(errs, fmt.Errorf("horizon.azimuths %d must divide 360", c.Horizon.Azimuths))
	}
	if c.Horizon.Workers <= 0 {
		errs = append(errs, fmt.Errorf("horizon.workers %d must be positive", c.Horizon.Workers))
	}
	if c.Horizon.RowWorkers < 0 {
		errs = append(errs, fmt.Errorf("horizon.row_workers %d must not be negative", c.Horizon.RowWorkers))
	}
	if c.Horizon.ScratchDir == "" {
		errs = append(errs, errors.New("horizon.scratch_dir is empty"))
	}
	return errors.Join(errs...)
}

// EffectiveRowWorkers resolves RowWorkers, substituting GOMAXPROCS for 0.
func (c *Config) EffectiveRowWorkers() int {
	if c.Horizon.RowWorkers > 0 {
		return c.Horizon.RowWorkers
	}
	return runtime.GOMAXPROCS(0)
}
